// Package money represents currency amounts as integer minor units.
//
// All ledger arithmetic happens on Amount values so balances never drift
// from rounding. Decimal strings only exist at the edges (wire and display)
// and are converted with shopspring/decimal.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places in one major unit.
const Scale = 2

// Amount is a signed quantity of minor units (cents, paise).
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Max is the largest magnitude a single amount or balance may hold:
// one trillion major units. Sums of a few thousand values this size stay
// well inside int64.
const Max Amount = 100_000_000_000_000

// ErrOutOfRange is returned for magnitudes above Max.
var ErrOutOfRange = errors.New("amount out of range")

var maxDecimal = Max.Decimal()

// InRange reports whether |a| <= Max.
func InRange(a Amount) bool {
	return a >= -Max && a <= Max
}

// FromDecimal converts a decimal major-unit value to minor units,
// rounding half away from zero to Scale places.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	d = d.Round(Scale)
	if d.Abs().GreaterThan(maxDecimal) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.StringFixed(Scale))
	}
	return Amount(d.Shift(Scale).IntPart()), nil
}

// Parse converts a decimal string such as "12.50" to an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants in tests and defaults. It panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount with exactly Scale decimal places.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Abs returns the magnitude of a.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Sum adds up amounts. Callers must keep the inputs in range; use
// CheckedSum for untrusted values.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// CheckedSum adds up amounts and fails with ErrOutOfRange if any input or
// partial sum leaves [-Max, Max].
func CheckedSum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		if !InRange(a) {
			return 0, fmt.Errorf("%w: %s", ErrOutOfRange, a)
		}
		total += a
		if !InRange(total) {
			return 0, fmt.Errorf("%w: sum exceeds %s", ErrOutOfRange, Max)
		}
	}
	return total, nil
}

// Allocate divides total into n shares that differ by at most one minor
// unit and sum exactly to total. Earlier shares receive the remainder.
func Allocate(total Amount, n int) []Amount {
	if n <= 0 {
		return nil
	}
	base := total / Amount(n)
	rem := total - base*Amount(n)
	shares := make([]Amount, n)
	for i := range shares {
		shares[i] = base
		if rem > 0 {
			shares[i]++
			rem--
		} else if rem < 0 {
			shares[i]--
			rem++
		}
	}
	return shares
}
