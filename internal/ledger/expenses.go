package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// ExpenseInput describes a new group expense.
type ExpenseInput struct {
	Description string                  `json:"description" validate:"required,max=200"`
	Amount      money.Amount            `json:"amount" validate:"gte=0"`
	Category    string                  `json:"category" validate:"max=50"`
	Date        time.Time               `json:"date"`
	PaidBy      string                  `json:"paidBy" validate:"required"`
	SplitType   models.SplitType        `json:"splitType" validate:"required,oneof=equal payer_excluded custom"`
	Splits      map[string]money.Amount `json:"splits" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
}

// checkSplits verifies the split map against the total before anything is
// read or written.
func (l *Ledger) checkSplits(in ExpenseInput) error {
	if !money.InRange(in.Amount) {
		return apperrors.Validation("expense total must not exceed %s", money.Max).
			WithDetails(map[string]string{"amount": "must not exceed " + money.Max.String()})
	}
	for _, userID := range sortedKeys(in.Splits) {
		if share := in.Splits[userID]; share > in.Amount+l.tolerance {
			return apperrors.Validation("share %s for %s exceeds the expense total of %s", share, userID, in.Amount).
				WithDetails(map[string]string{"splits": "share must not exceed amount"})
		}
	}
	sum, err := money.CheckedSum(mapValues(in.Splits)...)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "splits sum out of range")
	}
	if sum == 0 && in.Amount != 0 {
		return apperrors.Validation("split map has no positive share for a total of %s", in.Amount)
	}
	if diff := (sum - in.Amount).Abs(); diff > l.tolerance {
		return apperrors.Validation("splits sum to %s but the expense total is %s", sum, in.Amount).
			WithDetails(map[string]string{"splits": "must sum to amount"})
	}
	return nil
}

func mapValues(m map[string]money.Amount) []money.Amount {
	out := make([]money.Amount, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// AddGroupExpense records an expense paid by in.PaidBy and moves every
// positive share into the pairwise balance between that member and the
// payer. The expense and all balance writes commit together.
func (l *Ledger) AddGroupExpense(ctx context.Context, requesterID, groupID string, in ExpenseInput) (_ *models.Expense, err error) {
	defer l.observe("add_expense", time.Now(), &err)

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := l.checkSplits(in); err != nil {
		return nil, err
	}

	now := l.timestamp()
	expense := &models.Expense{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		PaidBy:      in.PaidBy,
		SplitType:   in.SplitType,
		Splits:      in.Splits,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if expense.Date.IsZero() {
		expense.Date = now
	}

	var group *models.Group
	err = l.store.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		g, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if err := requireMember(g, requesterID); err != nil {
			return err
		}
		if !g.HasMember(in.PaidBy) {
			return apperrors.Validation("payer %s is not a member of the group", in.PaidBy)
		}
		for _, userID := range sortedKeys(in.Splits) {
			if !g.HasMember(userID) {
				return apperrors.Validation("split user %s is not a member of the group", userID)
			}
		}

		// Only the pairs this expense touches are read.
		before := make(calculator.Snapshot)
		for _, key := range calculator.AffectedPairs(in.Splits, in.PaidBy) {
			b, err := tx.GetBalance(ctx, groupID, key)
			if apperrors.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			before[key] = calculator.SnapshotOf([]*models.Balance{b})[key]
		}
		after := calculator.ApplyExpense(before, in.Splits, in.PaidBy)
		for _, key := range calculator.AffectedPairs(in.Splits, in.PaidBy) {
			if !money.InRange(after[key]) {
				return apperrors.Validation("balance between %s would exceed %s", key, money.Max)
			}
		}

		batch := (&storage.Batch{}).PutExpense(expense)
		for _, c := range calculator.Diff(groupID, before, after) {
			if c.Balance == nil {
				batch.DeleteBalance(groupID, c.Key)
				continue
			}
			c.Balance.UpdatedAt = now
			batch.PutBalance(c.Balance)
		}
		group = g
		return tx.Write(ctx, batch)
	})
	if err != nil {
		l.logger.WarnContext(ctx, "failed to add expense", "group_id", groupID, "user_id", requesterID, "error", err)
		return nil, err
	}

	l.metrics.IncExpenses()
	l.logger.InfoContext(ctx, "expense recorded",
		"group_id", groupID,
		"expense_id", expense.ID,
		"paid_by", expense.PaidBy,
		"amount", expense.Amount.String(),
	)
	if l.notifier != nil {
		l.notifier.ExpenseAdded(group, expense)
	}
	return expense, nil
}

// ListExpenses returns the group's expenses, newest first.
func (l *Ledger) ListExpenses(ctx context.Context, requesterID, groupID string) ([]*models.Expense, error) {
	if _, err := l.groupFor(ctx, requesterID, groupID); err != nil {
		return nil, err
	}
	return l.store.ListExpenses(ctx, groupID)
}

// CalculateSplit builds the split map for an equal or payer-excluded
// expense among the group's current members. It changes nothing.
func (l *Ledger) CalculateSplit(ctx context.Context, requesterID, groupID string, splitType models.SplitType, total money.Amount, payer string) (map[string]money.Amount, error) {
	group, err := l.groupFor(ctx, requesterID, groupID)
	if err != nil {
		return nil, err
	}
	if payer != "" && !group.HasMember(payer) {
		return nil, apperrors.Validation("payer %s is not a member of the group", payer)
	}

	splits, err := calculator.BuildSplits(splitType, total, group.Members, payer)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, err.Error())
	}
	return splits, nil
}
