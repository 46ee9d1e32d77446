// Package storagetest holds behaviour tests every storage.Store backend must pass.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) storage.Store

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("ConcurrentRegistration", func(t *testing.T) { testConcurrentRegistration(t, newStore(t)) })
	t.Run("Groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("Balances", func(t *testing.T) { testBalances(t, newStore(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("History", func(t *testing.T) { testHistory(t, newStore(t)) })
	t.Run("Purge", func(t *testing.T) { testPurge(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
}

// seedGroup creates group g1 owned by alice with the given members.
func seedGroup(t *testing.T, s storage.Store, members ...string) *models.Group {
	t.Helper()
	g := &models.Group{
		ID:        "g1",
		Name:      "Trip",
		Members:   members,
		CreatedBy: members[0],
		CreatedAt: base,
		UpdatedAt: base,
	}
	b := (&storage.Batch{}).PutGroup(g)
	for i, m := range members {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		b.AddMembership(models.Membership{UserID: m, GroupID: g.ID, Role: role, JoinedAt: base})
	}
	require.NoError(t, s.Write(context.Background(), b))
	return g
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	u := models.NewUser("Alice@Example.com", "Alice", "hash")
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	err = s.CreateUser(ctx, models.NewUser("alice@example.com", "Other", "x"))
	assert.True(t, apperrors.IsValidation(err), "duplicate email: %v", err)

	_, err = s.GetUserByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}

func testConcurrentRegistration(t *testing.T, s storage.Store) {
	ctx := context.Background()
	const attempts = 8

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.CreateUser(ctx, models.NewUser("race@example.com", "Racer", "hash"))
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, apperrors.IsValidation(err), "duplicate registration: %v", err)
	}
	assert.Equal(t, 1, created)
}

func testGroups(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedGroup(t, s, "carol", "alice", "bob")

	g, err := s.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Trip", g.Name)
	assert.Equal(t, "carol", g.CreatedBy)
	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Members)
	assert.True(t, g.CreatedAt.Equal(base))

	groups, err := s.ListGroupsForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)

	ms, err := s.ListMemberships(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, models.RoleAdmin, ms[0].Role)

	// Drop bob from the group and his pointer in one batch.
	g.Members = []string{"alice", "carol"}
	require.NoError(t, s.Write(ctx, (&storage.Batch{}).PutGroup(g).RemoveMembership("bob", "g1")))

	g, err = s.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, g.Members)
	groups, err = s.ListGroupsForUser(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = s.GetGroup(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func testBalances(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedGroup(t, s, "alice", "bob", "carol")
	ab := models.NewPairKey("alice", "bob")
	bc := models.NewPairKey("bob", "carol")

	err := s.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.GetBalance(ctx, "g1", ab)
		assert.True(t, apperrors.IsNotFound(err))

		return tx.Write(ctx, (&storage.Batch{}).
			PutBalance(&models.Balance{GroupID: "g1", From: "carol", To: "bob", Amount: 700, UpdatedAt: base}).
			PutBalance(&models.Balance{GroupID: "g1", From: "bob", To: "alice", Amount: 1500, UpdatedAt: base}))
	})
	require.NoError(t, err)

	balances, err := s.ListBalances(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, ab, balances[0].Key())
	assert.Equal(t, bc, balances[1].Key())
	assert.Equal(t, money.Amount(1500), balances[0].Amount)

	// Flip direction of the alice/bob pair and delete bob/carol.
	err = s.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		b, err := tx.GetBalance(ctx, "g1", ab)
		if err != nil {
			return err
		}
		assert.Equal(t, "bob", b.From)
		return tx.Write(ctx, (&storage.Batch{}).
			PutBalance(&models.Balance{GroupID: "g1", From: "alice", To: "bob", Amount: 200, UpdatedAt: base}).
			DeleteBalance("g1", bc))
	})
	require.NoError(t, err)

	balances, err = s.ListBalances(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "alice", balances[0].From)
	assert.Equal(t, "bob", balances[0].To)
	assert.Equal(t, money.Amount(200), balances[0].Amount)
}

func testRollback(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedGroup(t, s, "alice", "bob")
	boom := errors.New("boom")

	err := s.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Write(ctx, (&storage.Batch{}).
			PutBalance(&models.Balance{GroupID: "g1", From: "alice", To: "bob", Amount: 100, UpdatedAt: base})); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	balances, err := s.ListBalances(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func testHistory(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedGroup(t, s, "alice", "bob")

	older := &models.Expense{
		GroupID: "g1", Description: "Taxi", Amount: 2000, Date: base, PaidBy: "alice",
		SplitType: models.SplitEqual,
		Splits:    map[string]money.Amount{"alice": 1000, "bob": 1000},
		CreatedAt: base, UpdatedAt: base,
	}
	newer := &models.Expense{
		GroupID: "g1", Description: "Dinner", Amount: 3001, Category: "food", Date: base, PaidBy: "bob",
		SplitType: models.SplitCustom,
		Splits:    map[string]money.Amount{"alice": 3001, "bob": 0},
		CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	require.NoError(t, s.Write(ctx, (&storage.Batch{}).PutExpense(older).PutExpense(newer)))
	assert.NotEmpty(t, older.ID)

	expenses, err := s.ListExpenses(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Dinner", expenses[0].Description)
	assert.Equal(t, "food", expenses[0].Category)
	assert.Equal(t, models.SplitCustom, expenses[0].SplitType)
	assert.Equal(t, map[string]money.Amount{"alice": 3001, "bob": 0}, expenses[0].Splits)
	assert.Equal(t, "Taxi", expenses[1].Description)

	for i, notes := range []string{"", "cash"} {
		st := &models.Settlement{
			GroupID: "g1", From: "alice", To: "bob", Amount: money.Amount(100 * (i + 1)),
			Date: base, Notes: notes, Status: models.SettlementStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.Write(ctx, (&storage.Batch{}).PutSettlement(st)))
	}

	settlements, err := s.ListSettlements(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, "cash", settlements[0].Notes)
	assert.Equal(t, money.Amount(200), settlements[0].Amount)
	assert.Equal(t, "", settlements[1].Notes)
	assert.Equal(t, models.SettlementStatusCompleted, settlements[1].Status)
}

func testPurge(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seedGroup(t, s, "alice", "bob")

	b := (&storage.Batch{}).
		PutExpense(&models.Expense{
			GroupID: "g1", Description: "x", Amount: 100, Date: base, PaidBy: "alice",
			SplitType: models.SplitEqual, Splits: map[string]money.Amount{"alice": 50, "bob": 50},
			CreatedAt: base, UpdatedAt: base,
		}).
		PutSettlement(&models.Settlement{
			GroupID: "g1", From: "bob", To: "alice", Amount: 10, Date: base,
			Status: models.SettlementStatusCompleted, CreatedAt: base,
		}).
		PutBalance(&models.Balance{GroupID: "g1", From: "bob", To: "alice", Amount: 40, UpdatedAt: base})
	require.NoError(t, s.Write(ctx, b))

	require.NoError(t, s.Write(ctx, (&storage.Batch{}).PurgeGroup("g1")))

	_, err := s.GetGroup(ctx, "g1")
	assert.True(t, apperrors.IsNotFound(err))

	expenses, err := s.ListExpenses(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, expenses)
	settlements, err := s.ListSettlements(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, settlements)
	balances, err := s.ListBalances(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, balances)
	for _, user := range []string{"alice", "bob"} {
		ms, err := s.ListMemberships(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, ms, "membership pointer left for %s", user)
	}
}

func testNotifications(t *testing.T, s storage.Store) {
	n := &models.Notification{
		UserID:  "alice",
		Type:    models.NotificationLargeExpense,
		Title:   "Large expense",
		Message: "Bob added Rent (6000.00)",
	}
	require.NoError(t, s.CreateNotification(context.Background(), n))
	assert.NotEmpty(t, n.ID)
}
