// Package money converts between the decimal amounts used on the public
// surface and the int64 minor units stored by backends. Conversions are
// exact: an amount that does not fit the configured scale is rejected,
// never rounded.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultScale is the number of fractional digits carried by default (cents).
const DefaultScale int32 = 2

var (
	ErrPrecision = errors.New("amount has more fractional digits than the monetary scale")
	ErrRange     = errors.New("amount out of range")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ToMinor converts d to minor units at the given scale.
// 100.00 at scale 2 becomes 10000; 10.005 at scale 2 is ErrPrecision.
func ToMinor(d decimal.Decimal, scale int32) (int64, error) {
	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, ErrPrecision
	}
	if shifted.Abs().Cmp(maxMinor) > 0 {
		return 0, ErrRange
	}
	return shifted.IntPart(), nil
}

// FromMinor converts minor units back to a decimal at the given scale:
// 10000 at scale 2 is 100.00.
func FromMinor(n int64, scale int32) decimal.Decimal {
	return decimal.New(n, -scale)
}
