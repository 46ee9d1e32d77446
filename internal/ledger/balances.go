package ledger

import (
	"context"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// GroupBalances is the stored balance set of a group with derived net positions.
type GroupBalances struct {
	Balances     []*models.Balance
	NetPositions []calculator.MemberBalance
}

// GetGroupBalances returns the group's balances ordered by pair key.
func (l *Ledger) GetGroupBalances(ctx context.Context, requesterID, groupID string) (_ *GroupBalances, err error) {
	defer l.observe("get_balances", time.Now(), &err)

	if _, err := l.groupFor(ctx, requesterID, groupID); err != nil {
		return nil, err
	}
	balances, err := l.store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &GroupBalances{
		Balances:     balances,
		NetPositions: calculator.NetPositions(balances),
	}, nil
}

// CalculateSimplifiedDebts suggests payments that would clear every net
// position in the group. It reads balances without locking and writes
// nothing; payments are made through RecordSettlement.
func (l *Ledger) CalculateSimplifiedDebts(ctx context.Context, requesterID, groupID string) (_ []calculator.DebtEdge, err error) {
	defer l.observe("simplify_debts", time.Now(), &err)

	if _, err := l.groupFor(ctx, requesterID, groupID); err != nil {
		return nil, err
	}
	balances, err := l.store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SimplifyDebts(balances), nil
}
