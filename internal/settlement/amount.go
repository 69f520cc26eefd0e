package settlement

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places balances and transfers are rounded to.
const Places = 2

// Epsilon is the smallest amount the engine treats as non-zero.
var Epsilon = decimal.New(1, -Places)

// NewAmount converts a wire amount into a decimal.
// NaN and infinities fail with ErrInvalidAmount.
func NewAmount(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}

// Round rounds d to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}
