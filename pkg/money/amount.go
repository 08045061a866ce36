package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon is the settlement tolerance. Repeated division (splitting 100
// three ways) cannot always land on exact cents, so "settled" comparisons
// use this tolerance instead of exact equality.
var Epsilon = decimal.New(1, -2) // 0.01

// Amount is a fixed-precision monetary value. Arithmetic is exact decimal
// arithmetic; rounding to cents is explicit via Round2 and is applied after
// aggregation steps, not per intermediate operation.
type Amount struct {
	dec decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New creates an Amount from a decimal value.
func New(d decimal.Decimal) Amount {
	return Amount{dec: d}
}

// FromCents creates an Amount from an integer number of cents.
func FromCents(cents int64) Amount {
	return Amount{dec: decimal.New(cents, -2)}
}

// FromFloat creates an Amount from a float64.
// Use sparingly: float64 can introduce precision errors.
func FromFloat(f float64) Amount {
	return Amount{dec: decimal.NewFromFloat(f)}
}

// FromString parses an Amount from a decimal string like "33.34".
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// MustFromString parses an Amount and panics on malformed input.
// Intended for constants and tests.
func MustFromString(s string) Amount {
	a, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{dec: a.dec.Add(b.dec)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{dec: a.dec.Sub(b.dec)}
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{dec: a.dec.Neg()}
}

// Abs returns |a|.
func (a Amount) Abs() Amount {
	return Amount{dec: a.dec.Abs()}
}

// MulInt returns a * n.
func (a Amount) MulInt(n int64) Amount {
	return Amount{dec: a.dec.Mul(decimal.NewFromInt(n))}
}

// DivInt returns a / n without rounding.
func (a Amount) DivInt(n int64) Amount {
	return Amount{dec: a.dec.Div(decimal.NewFromInt(n))}
}

// MulFrac returns a * num / den without rounding. Used for proportional
// allocation (a debtor's share of one payer's outlay).
func (a Amount) MulFrac(num, den Amount) Amount {
	return Amount{dec: a.dec.Mul(num.dec).Div(den.dec)}
}

// Round2 rounds to cents, half away from zero.
func (a Amount) Round2() Amount {
	return Amount{dec: a.dec.Round(2)}
}

// Cmp returns -1, 0 or 1 comparing a to b.
func (a Amount) Cmp(b Amount) int {
	return a.dec.Cmp(b.dec)
}

// Equal reports exact equality.
func (a Amount) Equal(b Amount) bool {
	return a.dec.Equal(b.dec)
}

// ApproxEqual reports equality within Epsilon.
func (a Amount) ApproxEqual(b Amount) bool {
	return a.dec.Sub(b.dec).Abs().Cmp(Epsilon) <= 0
}

// IsZero reports whether a is exactly zero.
func (a Amount) IsZero() bool {
	return a.dec.IsZero()
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a.dec.IsPositive()
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a.dec.IsNegative()
}

// IsSettled reports whether |a| is within Epsilon of zero.
func (a Amount) IsSettled() bool {
	return a.dec.Abs().Cmp(Epsilon) <= 0
}

// GreaterThanEpsilon reports whether a > Epsilon. The netting and
// simplification steps use this to decide whether a balance is outstanding.
func (a Amount) GreaterThanEpsilon() bool {
	return a.dec.Cmp(Epsilon) > 0
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Sum adds up a list of amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.dec
}

// Float64 returns the amount as a float64. Lossy; display only.
func (a Amount) Float64() float64 {
	f, _ := a.dec.Float64()
	return f
}

// String formats the amount with two decimal places.
func (a Amount) String() string {
	return a.dec.StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.dec.StringFixed(2) + `"`), nil
}

// UnmarshalJSON decodes either a JSON string or a bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	a.dec = d
	return nil
}
