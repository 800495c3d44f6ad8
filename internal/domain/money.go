// internal/domain/money.go
package domain

import (
	"errors"
	"math"

	"github.com/shopspring/decimal" // Display conversion only; arithmetic stays in int64
)

// MinorUnitDigits is the number of decimal places of the major unit: one major unit
// is 10^MinorUnitDigits minor units (cents, kopecks).
const MinorUnitDigits = 2

// ErrMoneyOverflow is returned when an arithmetic operation would leave the int64 range.
var ErrMoneyOverflow = errors.New("money arithmetic overflow")

// Money is an amount of currency expressed as an integer count of minor units.
// A zero floor is a business rule enforced by the ledger, not by this type.
type Money int64

// IsPositive reports whether m is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// Add returns m+other, or ErrMoneyOverflow if the sum does not fit in int64.
func (m Money) Add(other Money) (Money, error) {
	if other > 0 && m > math.MaxInt64-other {
		return 0, ErrMoneyOverflow
	}
	if other < 0 && m < math.MinInt64-other {
		return 0, ErrMoneyOverflow
	}
	return m + other, nil
}

// Sub returns m-other, or ErrMoneyOverflow if the difference does not fit in int64.
func (m Money) Sub(other Money) (Money, error) {
	if other < 0 && m > math.MaxInt64+other {
		return 0, ErrMoneyOverflow
	}
	if other > 0 && m < math.MinInt64+other {
		return 0, ErrMoneyOverflow
	}
	return m - other, nil
}

// Major converts minor units to the major-unit value shown to users (10050 -> 100.50).
// The conversion is exact.
func (m Money) Major() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitDigits)
}

// String renders the major-unit value with MinorUnitDigits decimal places.
func (m Money) String() string {
	return m.Major().StringFixed(MinorUnitDigits)
}
