package storage

import (
	"github.com/mmynk/splitledger/internal/models"
)

// BalanceWrite sets or deletes the balance of one pair. A nil Balance deletes.
type BalanceWrite struct {
	GroupID string
	Key     models.PairKey
	Balance *models.Balance
}

// MembershipWrite adds or removes one membership pointer.
type MembershipWrite struct {
	Membership models.Membership
	Delete     bool
}

// Batch is a set of mutations applied all-or-nothing. Backends apply the
// sections in field order, so a purge sees and removes everything written
// earlier in the same batch.
type Batch struct {
	// Groups are upserted, including their member lists.
	Groups      []*models.Group
	Memberships []MembershipWrite
	Expenses    []*models.Expense
	Settlements []*models.Settlement
	Balances    []BalanceWrite
	// Purges cascade-delete a group: expenses, balances, settlements,
	// every membership pointer and the group itself.
	Purges []string
}

// PutGroup stages an upsert of g.
func (b *Batch) PutGroup(g *models.Group) *Batch {
	b.Groups = append(b.Groups, g)
	return b
}

// AddMembership stages a new membership pointer.
func (b *Batch) AddMembership(m models.Membership) *Batch {
	b.Memberships = append(b.Memberships, MembershipWrite{Membership: m})
	return b
}

// RemoveMembership stages deletion of the user's pointer to the group.
func (b *Batch) RemoveMembership(userID, groupID string) *Batch {
	b.Memberships = append(b.Memberships, MembershipWrite{
		Membership: models.Membership{UserID: userID, GroupID: groupID},
		Delete:     true,
	})
	return b
}

// PutExpense stages an expense insert.
func (b *Batch) PutExpense(e *models.Expense) *Batch {
	b.Expenses = append(b.Expenses, e)
	return b
}

// PutSettlement stages a settlement insert.
func (b *Batch) PutSettlement(s *models.Settlement) *Batch {
	b.Settlements = append(b.Settlements, s)
	return b
}

// PutBalance stages an upsert of the balance's pair.
func (b *Batch) PutBalance(bal *models.Balance) *Batch {
	b.Balances = append(b.Balances, BalanceWrite{GroupID: bal.GroupID, Key: bal.Key(), Balance: bal})
	return b
}

// DeleteBalance stages deletion of a pair's balance.
func (b *Batch) DeleteBalance(groupID string, key models.PairKey) *Batch {
	b.Balances = append(b.Balances, BalanceWrite{GroupID: groupID, Key: key})
	return b
}

// PurgeGroup stages a cascading delete of the group.
func (b *Batch) PurgeGroup(groupID string) *Batch {
	b.Purges = append(b.Purges, groupID)
	return b
}

// Empty reports whether the batch has nothing to apply.
func (b *Batch) Empty() bool {
	return len(b.Groups) == 0 && len(b.Memberships) == 0 && len(b.Expenses) == 0 &&
		len(b.Settlements) == 0 && len(b.Balances) == 0 && len(b.Purges) == 0
}
