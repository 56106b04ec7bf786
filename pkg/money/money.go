// Package money holds the fixed-point helpers used for cart pricing.
//
// Prices enter the system as float64 (catalog documents, JSON payloads) and are
// converted once into decimal.Decimal. All arithmetic happens in decimal and
// values are rounded to two places only when presented.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits used at presentation boundaries.
const Places int32 = 2

// FromFloat converts a float price into a decimal. The boolean is false for
// NaN and ±Inf, in which case the returned decimal is zero.
func FromFloat(value float64) (decimal.Decimal, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(value), true
}

// Round rounds to presentation precision.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(Places)
}

// Format renders a value with exactly two decimals, e.g. "12.00".
func Format(value decimal.Decimal) string {
	return value.StringFixed(Places)
}

// Float returns the rounded value as float64 for JSON number fields.
func Float(value decimal.Decimal) float64 {
	return Round(value).InexactFloat64()
}

// Sum accumulates decimal amounts and remembers whether any non-finite input
// was seen. A poisoned sum reports zero.
type Sum struct {
	total    decimal.Decimal
	poisoned bool
}

// Add adds an already-converted amount.
func (s *Sum) Add(value decimal.Decimal) {
	s.total = s.total.Add(value)
}

// AddLine adds price*qty, poisoning the sum when price is not finite.
func (s *Sum) AddLine(price float64, qty int) {
	amount, ok := FromFloat(price)
	if !ok {
		s.poisoned = true
		return
	}
	s.total = s.total.Add(amount.Mul(decimal.NewFromInt(int64(qty))))
}

// Merge folds another sum into s, carrying its poisoned state.
func (s *Sum) Merge(other Sum) {
	s.total = s.total.Add(other.total)
	s.poisoned = s.poisoned || other.poisoned
}

// Poison marks the sum as non-finite.
func (s *Sum) Poison() {
	s.poisoned = true
}

// Finite reports whether every contribution was finite.
func (s Sum) Finite() bool {
	return !s.poisoned
}

// Raw returns the accumulated value ignoring the poisoned flag.
func (s Sum) Raw() decimal.Decimal {
	return s.total
}

// Value returns the accumulated amount, or zero when a non-finite input was seen.
func (s Sum) Value() decimal.Decimal {
	if s.poisoned {
		return decimal.Zero
	}
	return s.total
}
