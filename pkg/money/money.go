package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in minor currency units. All ledger arithmetic
// happens on this type so installment sums reconcile exactly.
type Cents int64

var hundred = decimal.NewFromInt(100)

// FromDecimal converts an API-boundary decimal amount ("899.99") into minor
// units. Amounts with sub-cent precision are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	scaled := d.Mul(hundred)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d.String())
	}
	return Cents(scaled.IntPart()), nil
}

// Decimal converts back to a two-decimal-place amount for display and wire use.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}
