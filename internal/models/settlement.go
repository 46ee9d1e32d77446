package models

import (
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// SettlementStatusCompleted is the only status the ledger records.
const SettlementStatusCompleted = "completed"

// Settlement is an immutable record of a payment that reduced a balance.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// From is the user who paid (debtor settling up).
	From string

	// To is the user who received the payment (creditor).
	To string

	// Amount is the payment amount; positive and at most the balance at submission.
	Amount money.Amount

	// Date is when the payment happened, as reported by the caller.
	Date time.Time

	// Notes is an optional description.
	Notes string

	Status    string
	CreatedAt time.Time
}
