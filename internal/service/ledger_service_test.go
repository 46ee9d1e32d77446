package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// trio registers alice, bob and carol in one group owned by alice.
func trio(t *testing.T, env *testEnv) (alice, bob, carol *session, groupID string) {
	t.Helper()
	alice = env.register(t, "alice")
	bob = env.register(t, "bob")
	carol = env.register(t, "carol")
	groupID = env.createGroup(t, alice, "Trip", bob, carol)
	return alice, bob, carol, groupID
}

func TestExpenseSettlementFlow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob, carol, groupID := trio(t, env)

	added, err := env.ledger.AddExpense(ctx, authed(bob, &api.AddExpenseRequest{
		GroupID:     groupID,
		Description: "Dinner",
		Amount:      dec("90"),
		Category:    "food",
		PaidBy:      alice.user.ID,
		SplitType:   "equal",
		Splits: map[string]decimal.Decimal{
			alice.user.ID: dec("30"),
			bob.user.ID:   dec("30"),
			carol.user.ID: dec("30"),
		},
	}))
	require.NoError(t, err)
	e := added.Msg.Expense
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "90.00", e.Amount.StringFixed(2))
	assert.Equal(t, "equal", e.SplitType)
	assert.False(t, e.Date.IsZero())

	balances, err := env.ledger.GetBalances(ctx, authed(carol, &api.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	owed := map[string]string{}
	for _, b := range balances.Msg.Balances {
		assert.Equal(t, alice.user.ID, b.To)
		owed[b.From] = b.Amount.StringFixed(2)
	}
	assert.Equal(t, map[string]string{bob.user.ID: "30.00", carol.user.ID: "30.00"}, owed)

	net := map[string]string{}
	for _, p := range balances.Msg.NetPositions {
		net[p.UserID] = p.NetBalance.StringFixed(2)
	}
	assert.Equal(t, map[string]string{
		alice.user.ID: "60.00",
		bob.user.ID:   "-30.00",
		carol.user.ID: "-30.00",
	}, net)

	simplified, err := env.ledger.SimplifyDebts(ctx, authed(alice, &api.SimplifyDebtsRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, simplified.Msg.Transactions, 2)
	for _, tx := range simplified.Msg.Transactions {
		assert.Equal(t, alice.user.ID, tx.To)
		assert.Equal(t, "30.00", tx.Amount.StringFixed(2))
	}

	settled, err := env.ledger.RecordSettlement(ctx, authed(bob, &api.RecordSettlementRequest{
		GroupID: groupID,
		From:    bob.user.ID,
		To:      alice.user.ID,
		Amount:  dec("30"),
		Notes:   "cash",
	}))
	require.NoError(t, err)
	assert.Equal(t, "completed", settled.Msg.Settlement.Status)
	assert.Equal(t, "cash", settled.Msg.Settlement.Notes)

	balances, err = env.ledger.GetBalances(ctx, authed(alice, &api.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Balances, 1)
	assert.Equal(t, carol.user.ID, balances.Msg.Balances[0].From)

	expenses, err := env.ledger.ListExpenses(ctx, authed(alice, &api.ListExpensesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, expenses.Msg.Expenses, 1)
	assert.Equal(t, "30.00", expenses.Msg.Expenses[0].Splits[carol.user.ID].StringFixed(2))

	settlements, err := env.ledger.ListSettlements(ctx, authed(carol, &api.ListSettlementsRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, settlements.Msg.Settlements, 1)
	assert.Equal(t, settled.Msg.Settlement.ID, settlements.Msg.Settlements[0].ID)
}

func TestAddExpense_Rejects(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob, _, groupID := trio(t, env)
	outsider := env.register(t, "mallory")

	valid := func() *api.AddExpenseRequest {
		return &api.AddExpenseRequest{
			GroupID:     groupID,
			Description: "Snacks",
			Amount:      dec("10"),
			PaidBy:      alice.user.ID,
			SplitType:   "custom",
			Splits: map[string]decimal.Decimal{
				alice.user.ID: dec("5"),
				bob.user.ID:   dec("5"),
			},
		}
	}

	tests := []struct {
		name   string
		caller *session
		mutate func(*api.AddExpenseRequest)
		want   connect.Code
	}{
		{"sub-cent amount", alice, func(r *api.AddExpenseRequest) { r.Amount = dec("10.001") }, connect.CodeInvalidArgument},
		{"sub-cent share", alice, func(r *api.AddExpenseRequest) { r.Splits[bob.user.ID] = dec("4.999") }, connect.CodeInvalidArgument},
		{"amount wraps int64", alice, func(r *api.AddExpenseRequest) {
			r.Amount = dec("184467440737095517.16")
			r.Splits = map[string]decimal.Decimal{bob.user.ID: dec("1")}
		}, connect.CodeInvalidArgument},
		{"negative amount wraps int64", alice, func(r *api.AddExpenseRequest) { r.Amount = dec("92233720368547758.08") }, connect.CodeInvalidArgument},
		{"share above maximum", alice, func(r *api.AddExpenseRequest) { r.Splits[bob.user.ID] = dec("1000000000000.01") }, connect.CodeInvalidArgument},
		{"splits do not sum", alice, func(r *api.AddExpenseRequest) { r.Amount = dec("11") }, connect.CodeInvalidArgument},
		{"unknown split type", alice, func(r *api.AddExpenseRequest) { r.SplitType = "weird" }, connect.CodeInvalidArgument},
		{"payer not a member", alice, func(r *api.AddExpenseRequest) { r.PaidBy = outsider.user.ID }, connect.CodeInvalidArgument},
		{"caller not a member", outsider, func(r *api.AddExpenseRequest) {}, connect.CodePermissionDenied},
		{"unknown group", alice, func(r *api.AddExpenseRequest) { r.GroupID = "missing" }, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := env.ledger.AddExpense(ctx, authed(tt.caller, req))
			assertCode(t, tt.want, err)
		})
	}

	balances, err := env.ledger.GetBalances(ctx, authed(alice, &api.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, balances.Msg.Balances)
}

func TestRecordSettlement_Rejects(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob, carol, groupID := trio(t, env)

	_, err := env.ledger.AddExpense(ctx, authed(alice, &api.AddExpenseRequest{
		GroupID:     groupID,
		Description: "Tickets",
		Amount:      dec("40"),
		PaidBy:      alice.user.ID,
		SplitType:   "custom",
		Splits:      map[string]decimal.Decimal{bob.user.ID: dec("40")},
	}))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *api.RecordSettlementRequest
		want connect.Code
	}{
		{"amount out of range", &api.RecordSettlementRequest{From: bob.user.ID, To: alice.user.ID, Amount: dec("184467440737095517.16")}, connect.CodeInvalidArgument},
		{"more than owed", &api.RecordSettlementRequest{From: bob.user.ID, To: alice.user.ID, Amount: dec("40.01")}, connect.CodeInvalidArgument},
		{"wrong direction", &api.RecordSettlementRequest{From: alice.user.ID, To: bob.user.ID, Amount: dec("10")}, connect.CodeNotFound},
		{"no balance", &api.RecordSettlementRequest{From: carol.user.ID, To: alice.user.ID, Amount: dec("10")}, connect.CodeNotFound},
		{"zero amount", &api.RecordSettlementRequest{From: bob.user.ID, To: alice.user.ID, Amount: dec("0")}, connect.CodeInvalidArgument},
		{"self payment", &api.RecordSettlementRequest{From: bob.user.ID, To: bob.user.ID, Amount: dec("1")}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.GroupID = groupID
			_, err := env.ledger.RecordSettlement(ctx, authed(bob, tt.req))
			assertCode(t, tt.want, err)
		})
	}

	// A partial payment leaves the remainder.
	_, err = env.ledger.RecordSettlement(ctx, authed(bob, &api.RecordSettlementRequest{
		GroupID: groupID, From: bob.user.ID, To: alice.user.ID, Amount: dec("15.50"),
	}))
	require.NoError(t, err)

	balances, err := env.ledger.GetBalances(ctx, authed(bob, &api.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Balances, 1)
	assert.Equal(t, "24.50", balances.Msg.Balances[0].Amount.StringFixed(2))
}

func TestCalculateSplit(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob, carol, groupID := trio(t, env)

	resp, err := env.ledger.CalculateSplit(ctx, authed(alice, &api.CalculateSplitRequest{
		GroupID:   groupID,
		SplitType: "equal",
		Amount:    dec("100"),
		PaidBy:    alice.user.ID,
	}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Splits, 3)
	sum := decimal.Zero
	for _, v := range resp.Msg.Splits {
		sum = sum.Add(v)
	}
	assert.Equal(t, "100.00", sum.StringFixed(2))

	resp, err = env.ledger.CalculateSplit(ctx, authed(alice, &api.CalculateSplitRequest{
		GroupID:   groupID,
		SplitType: "payer_excluded",
		Amount:    dec("50"),
		PaidBy:    alice.user.ID,
	}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Splits[alice.user.ID].IsZero())
	assert.Equal(t, "25.00", resp.Msg.Splits[bob.user.ID].StringFixed(2))
	assert.Equal(t, "25.00", resp.Msg.Splits[carol.user.ID].StringFixed(2))

	_, err = env.ledger.CalculateSplit(ctx, authed(alice, &api.CalculateSplitRequest{
		GroupID:   groupID,
		SplitType: "custom",
		Amount:    dec("50"),
	}))
	assertCode(t, connect.CodeInvalidArgument, err)
}

func TestReadsRequireMembership(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	_, _, _, groupID := trio(t, env)
	outsider := env.register(t, "mallory")

	_, err := env.ledger.GetBalances(ctx, authed(outsider, &api.GetBalancesRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
	_, err = env.ledger.SimplifyDebts(ctx, authed(outsider, &api.SimplifyDebtsRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
	_, err = env.ledger.ListExpenses(ctx, authed(outsider, &api.ListExpensesRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
	_, err = env.ledger.ListSettlements(ctx, authed(outsider, &api.ListSettlementsRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
}
