package calculator

import (
	"cmp"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Snapshot holds pairwise balances as signed amounts keyed by unordered pair.
// A positive value means the pair's lower ID owes the higher ID; negative
// means the reverse. Zero entries are equivalent to absent ones.
type Snapshot map[models.PairKey]money.Amount

// SnapshotOf builds a snapshot from stored balances.
func SnapshotOf(balances []*models.Balance) Snapshot {
	s := make(Snapshot, len(balances))
	for _, b := range balances {
		s[b.Key()] += signedAmount(b)
	}
	return s
}

func signedAmount(b *models.Balance) money.Amount {
	low, _ := b.Key().Users()
	if b.From == low {
		return b.Amount
	}
	return -b.Amount
}

// BalanceFor turns a signed pair amount back into a directed balance.
// It returns nil when the amount is zero.
func BalanceFor(groupID string, key models.PairKey, amount money.Amount) *models.Balance {
	if amount == 0 {
		return nil
	}
	low, high := key.Users()
	if amount > 0 {
		return &models.Balance{GroupID: groupID, From: low, To: high, Amount: amount}
	}
	return &models.Balance{GroupID: groupID, From: high, To: low, Amount: -amount}
}

// ApplyExpense returns a new snapshot in which every non-payer with a
// positive share owes the payer that share more. Opposite-direction debts
// are reduced, cancelled or flipped; same-direction debts grow. current is
// not modified.
func ApplyExpense(current Snapshot, splits map[string]money.Amount, payer string) Snapshot {
	next := make(Snapshot, len(current)+len(splits))
	for k, v := range current {
		next[k] = v
	}
	for debtor, owed := range splits {
		if debtor == payer || owed <= 0 {
			continue
		}
		key := models.NewPairKey(debtor, payer)
		low, _ := key.Users()
		if debtor == low {
			next[key] += owed
		} else {
			next[key] -= owed
		}
	}
	return next
}

// AffectedPairs lists the pairs an expense touches, in key order.
func AffectedPairs(splits map[string]money.Amount, payer string) []models.PairKey {
	var keys []models.PairKey
	for debtor, owed := range splits {
		if debtor == payer || owed <= 0 {
			continue
		}
		keys = append(keys, models.NewPairKey(debtor, payer))
	}
	slices.Sort(keys)
	return keys
}

// Change is one balance write. Balance is nil when the pair must be deleted.
type Change struct {
	Key     models.PairKey
	Balance *models.Balance
}

// Diff lists the writes turning before into after, ordered by key. Pairs
// whose signed amount did not change produce no write.
func Diff(groupID string, before, after Snapshot) []Change {
	keys := make(map[models.PairKey]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	var changes []Change
	for k := range keys {
		if before[k] == after[k] {
			continue
		}
		changes = append(changes, Change{Key: k, Balance: BalanceFor(groupID, k, after[k])})
	}
	slices.SortFunc(changes, func(a, b Change) int { return cmp.Compare(a.Key, b.Key) })
	return changes
}

// MemberBalance is a user's net position across a group's balances.
type MemberBalance struct {
	UserID     string
	NetBalance money.Amount // Positive = owed money, Negative = owes money
}

// NetPositions sums balances per user. Users appear in the order they are
// first seen (from before to within each balance); users absent from every
// balance are omitted. The NetBalance values always sum to zero.
func NetPositions(balances []*models.Balance) []MemberBalance {
	index := make(map[string]int)
	var out []MemberBalance
	add := func(user string, delta money.Amount) {
		i, ok := index[user]
		if !ok {
			i = len(out)
			index[user] = i
			out = append(out, MemberBalance{UserID: user})
		}
		out[i].NetBalance += delta
	}
	for _, b := range balances {
		add(b.From, -b.Amount)
		add(b.To, b.Amount)
	}
	return out
}

// DebtEdge is a suggested payment.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount money.Amount
}

type party struct {
	userID    string
	magnitude money.Amount
}

// SimplifyDebts reduces balances to net positions and greedily matches the
// largest remaining debtor with the largest remaining creditor until one
// side runs out. Ties keep first-seen order. Every net position is fully
// accounted for and at most debtors+creditors-1 edges are emitted; the
// count is not guaranteed minimal.
func SimplifyDebts(balances []*models.Balance) []DebtEdge {
	var debtors, creditors []party
	for _, mb := range NetPositions(balances) {
		switch {
		case mb.NetBalance < 0:
			debtors = append(debtors, party{mb.UserID, -mb.NetBalance})
		case mb.NetBalance > 0:
			creditors = append(creditors, party{mb.UserID, mb.NetBalance})
		}
	}

	byMagnitudeDesc := func(a, b party) int { return cmp.Compare(b.magnitude, a.magnitude) }
	slices.SortStableFunc(debtors, byMagnitudeDesc)
	slices.SortStableFunc(creditors, byMagnitudeDesc)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		amount := money.Min(d.magnitude, c.magnitude)
		edges = append(edges, DebtEdge{From: d.userID, To: c.userID, Amount: amount})

		d.magnitude -= amount
		c.magnitude -= amount

		// Below one minor unit is settled.
		if d.magnitude < 1 {
			i++
		}
		if c.magnitude < 1 {
			j++
		}
	}
	return edges
}
