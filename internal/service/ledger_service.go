package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Ensure LedgerService implements the handler interface
var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService exposes expenses, settlements and balances over Connect.
type LedgerService struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(l *ledger.Ledger, logger *slog.Logger) *LedgerService {
	return &LedgerService{ledger: l, logger: logger.With(slog.String("service", "ledger"))}
}

// AddExpense records an expense and updates pairwise balances.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("AddExpense request",
		"group_id", msg.GroupID,
		"amount", msg.Amount.String(),
		"paid_by", msg.PaidBy,
		"split_type", msg.SplitType,
		"participants", len(msg.Splits),
	)

	amount, err := toAmount("amount", msg.Amount)
	if err != nil {
		return nil, err
	}
	splits, err := toAmounts("splits", msg.Splits)
	if err != nil {
		return nil, err
	}

	expense, err := s.ledger.AddGroupExpense(ctx, userID, msg.GroupID, ledger.ExpenseInput{
		Description: msg.Description,
		Amount:      amount,
		Category:    msg.Category,
		Date:        msg.Date,
		PaidBy:      msg.PaidBy,
		SplitType:   models.SplitType(msg.SplitType),
		Splits:      splits,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "AddExpense", err)
	}
	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	expenses, err := s.ledger.ListExpenses(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "ListExpenses", err)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: mapSlice(expenses, expenseToAPI)}), nil
}

// CalculateSplit previews the split map the ledger would build for the
// group's current members. Nothing is written.
func (s *LedgerService) CalculateSplit(ctx context.Context, req *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := toAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	splits, err := s.ledger.CalculateSplit(ctx, userID, req.Msg.GroupID, models.SplitType(req.Msg.SplitType), amount, req.Msg.PaidBy)
	if err != nil {
		return nil, toConnectError(s.logger, "CalculateSplit", err)
	}
	return connect.NewResponse(&api.CalculateSplitResponse{Splits: toDecimals(splits)}), nil
}

// RecordSettlement pays down the balance From owes To.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("RecordSettlement request",
		"group_id", msg.GroupID,
		"from", msg.From,
		"to", msg.To,
		"amount", msg.Amount.String(),
	)

	amount, err := toAmount("amount", msg.Amount)
	if err != nil {
		return nil, err
	}

	settlement, err := s.ledger.RecordSettlement(ctx, userID, msg.GroupID, ledger.SettlementInput{
		From:   msg.From,
		To:     msg.To,
		Amount: amount,
		Date:   msg.Date,
		Notes:  msg.Notes,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "RecordSettlement", err)
	}
	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: settlementToAPI(settlement)}), nil
}

// ListSettlements returns the group's settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := s.ledger.ListSettlements(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "ListSettlements", err)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: mapSlice(settlements, settlementToAPI)}), nil
}

// GetBalances returns the stored pairwise balances and each member's net position.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	gb, err := s.ledger.GetGroupBalances(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetBalances", err)
	}
	return connect.NewResponse(&api.GetBalancesResponse{
		Balances:     mapSlice(gb.Balances, balanceToAPI),
		NetPositions: mapSlice(gb.NetPositions, netPositionToAPI),
	}), nil
}

// SimplifyDebts suggests the payments that would settle the group.
func (s *LedgerService) SimplifyDebts(ctx context.Context, req *connect.Request[api.SimplifyDebtsRequest]) (*connect.Response[api.SimplifyDebtsResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	edges, err := s.ledger.CalculateSimplifiedDebts(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "SimplifyDebts", err)
	}

	s.logger.Debug("Debts simplified", "group_id", req.Msg.GroupID, "transactions", len(edges))
	return connect.NewResponse(&api.SimplifyDebtsResponse{Transactions: mapSlice(edges, transactionToAPI)}), nil
}
