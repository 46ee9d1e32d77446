package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/api"
)

// toAmount converts a wire decimal to minor units. Values with more
// precision than the currency carries are rejected rather than rounded.
func toAmount(field string, d decimal.Decimal) (money.Amount, error) {
	if !d.Equal(d.Round(money.Scale)) {
		return 0, invalidArgument("%s has more than %d decimal places", field, money.Scale)
	}
	a, err := money.FromDecimal(d)
	if err != nil {
		return 0, invalidArgument("%s must not exceed %s", field, money.Max)
	}
	return a, nil
}

func toAmounts(field string, in map[string]decimal.Decimal) (map[string]money.Amount, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]money.Amount, len(in))
	for userID, d := range in {
		a, err := toAmount(field+"."+userID, d)
		if err != nil {
			return nil, err
		}
		out[userID] = a
	}
	return out, nil
}

func toDecimals(in map[string]money.Amount) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for userID, a := range in {
		out[userID] = a.Decimal()
	}
	return out
}

func userToAPI(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func groupToAPI(g *models.Group) *api.Group {
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     g.Members,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func expenseToAPI(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount.Decimal(),
		Category:    e.Category,
		Date:        e.Date,
		PaidBy:      e.PaidBy,
		SplitType:   string(e.SplitType),
		Splits:      toDecimals(e.Splits),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func settlementToAPI(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:        s.ID,
		GroupID:   s.GroupID,
		From:      s.From,
		To:        s.To,
		Amount:    s.Amount.Decimal(),
		Date:      s.Date,
		Notes:     s.Notes,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}

func balanceToAPI(b *models.Balance) *api.Balance {
	return &api.Balance{
		From:      b.From,
		To:        b.To,
		Amount:    b.Amount.Decimal(),
		UpdatedAt: b.UpdatedAt,
	}
}

func netPositionToAPI(mb calculator.MemberBalance) *api.NetPosition {
	return &api.NetPosition{
		UserID:     mb.UserID,
		NetBalance: mb.NetBalance.Decimal(),
	}
}

func transactionToAPI(e calculator.DebtEdge) *api.Transaction {
	return &api.Transaction{
		From:   e.From,
		To:     e.To,
		Amount: e.Amount.Decimal(),
	}
}

// mapSlice applies fn to every element. The result is never nil so empty
// lists encode as [].
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
