package models

import (
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// SplitType tags how an expense's split map was produced.
type SplitType string

const (
	// SplitEqual divides the total among all members, payer included.
	SplitEqual SplitType = "equal"
	// SplitPayerExcluded divides the total among members other than the payer.
	SplitPayerExcluded SplitType = "payer_excluded"
	// SplitCustom carries caller-supplied shares.
	SplitCustom SplitType = "custom"
)

// Valid reports whether t is a known split type.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitPayerExcluded, SplitCustom:
		return true
	}
	return false
}

// Expense is an append-only record of a payment shared by group members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID     string
	Description string

	// Amount is the expense total.
	Amount money.Amount

	// Category defaults to "other".
	Category string

	// Date is when the expense happened, as reported by the caller.
	Date time.Time

	// PaidBy is the user who paid the full amount.
	PaidBy string

	SplitType SplitType

	// Splits maps user ID to the share that user owes. Shares sum to Amount.
	Splits map[string]money.Amount

	CreatedAt time.Time
	UpdatedAt time.Time
}
