// Package money canonicalizes monetary values for replies and payloads.
// All amounts are fixed-precision decimals; binary floating point is never
// used for money anywhere in the service.
package money

import (
	"github.com/shopspring/decimal"
)

// Amount is a monetary value normalized to 2 decimal places, rounding ties
// away from zero (the HALF_UP policy: 10.005 -> 10.01). Normalization is
// idempotent.
type Amount struct {
	d decimal.Decimal
}

// FromDecimal normalizes d into an Amount.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.Round(2)}
}

// Parse normalizes a decimal string into an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return FromDecimal(d), nil
}

// Decimal returns the underlying normalized decimal.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the amount with exactly two decimal places, e.g. "10.01".
func (a Amount) String() string {
	return a.d.StringFixed(2)
}

// Equal reports whether two amounts represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// MarshalJSON emits the amount as a plain JSON number with two decimal
// places so payloads stay consistent across handlers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*a = FromDecimal(d)
	return nil
}
