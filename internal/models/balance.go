package models

import (
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// pairSep cannot appear in a UUID, so joined keys are unambiguous.
const pairSep = "|"

// PairKey is the canonical key of an unordered user pair: the two IDs in
// ascending order. Both directions of a pair map to the same key.
type PairKey string

// NewPairKey returns the key for {a, b}.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(a + pairSep + b)
}

// Users returns the pair members in ascending order.
func (k PairKey) Users() (low, high string) {
	low, high, _ = strings.Cut(string(k), pairSep)
	return low, high
}

// Balance means From owes To a strictly positive Amount within a group.
// At most one Balance exists per PairKey.
type Balance struct {
	GroupID   string
	From      string
	To        string
	Amount    money.Amount
	UpdatedAt time.Time
}

// Key returns the balance's unordered pair key. It doubles as the record ID.
func (b *Balance) Key() PairKey {
	return NewPairKey(b.From, b.To)
}
