package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// SettlementInput describes a payment from one member to another.
type SettlementInput struct {
	From   string       `json:"from" validate:"required"`
	To     string       `json:"to" validate:"required,nefield=From"`
	Amount money.Amount `json:"amount" validate:"gt=0"`
	Date   time.Time    `json:"date"`
	Notes  string       `json:"notes" validate:"max=500"`
}

// RecordSettlement reduces the balance in which in.From owes in.To by
// in.Amount, deleting it when fully paid, and appends a settlement record.
// The balance is re-read inside the transaction; the requested amount is
// checked against that fresh value.
func (l *Ledger) RecordSettlement(ctx context.Context, requesterID, groupID string, in SettlementInput) (_ *models.Settlement, err error) {
	defer l.observe("record_settlement", time.Now(), &err)

	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := l.timestamp()
	settlement := &models.Settlement{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		From:      in.From,
		To:        in.To,
		Amount:    in.Amount,
		Date:      in.Date,
		Notes:     in.Notes,
		Status:    models.SettlementStatusCompleted,
		CreatedAt: now,
	}
	if settlement.Date.IsZero() {
		settlement.Date = now
	}
	key := models.NewPairKey(in.From, in.To)

	err = l.store.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if err := requireMember(group, requesterID); err != nil {
			return err
		}
		for _, userID := range []string{in.From, in.To} {
			if !group.HasMember(userID) {
				return apperrors.Validation("user %s is not a member of the group", userID)
			}
		}

		balance, err := tx.GetBalance(ctx, groupID, key)
		if apperrors.IsNotFound(err) || (err == nil && balance.From != in.From) {
			return apperrors.NotFound("no balance found from %s to %s", in.From, in.To)
		}
		if err != nil {
			return err
		}
		if in.Amount > balance.Amount {
			return apperrors.Validation("settlement amount %s exceeds the balance of %s", in.Amount, balance.Amount).
				WithDetails(map[string]string{"amount": "must not exceed " + balance.Amount.String()})
		}

		batch := (&storage.Batch{}).PutSettlement(settlement)
		if in.Amount == balance.Amount {
			batch.DeleteBalance(groupID, key)
		} else {
			balance.Amount -= in.Amount
			balance.UpdatedAt = now
			batch.PutBalance(balance)
		}
		return tx.Write(ctx, batch)
	})
	if err != nil {
		l.logger.WarnContext(ctx, "failed to record settlement", "group_id", groupID, "user_id", requesterID, "error", err)
		return nil, err
	}

	l.metrics.IncSettlements()
	l.logger.InfoContext(ctx, "settlement recorded",
		"group_id", groupID,
		"settlement_id", settlement.ID,
		"from", in.From,
		"to", in.To,
		"amount", in.Amount.String(),
	)
	return settlement, nil
}

// ListSettlements returns the group's settlements, newest first.
func (l *Ledger) ListSettlements(ctx context.Context, requesterID, groupID string) ([]*models.Settlement, error) {
	if _, err := l.groupFor(ctx, requesterID, groupID); err != nil {
		return nil, err
	}
	return l.store.ListSettlements(ctx, groupID)
}
