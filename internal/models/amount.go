package models

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount a record may carry, 2^256-1 smallest units. It
// fits the NUMERIC(78,0) column the postgres store uses.
var MaxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), 0)

const (
	maxAmountExponent  = 78
	maxCoefficientBits = 256 + 260 // MaxAmount scaled by 10^78
)

// ValidAmount reports whether amount is a whole number in [1, MaxAmount].
//
// The exponent and coefficient size are checked before anything is expanded, so
// inputs like 1e2000000 or 0e-300000000 are rejected without big-number work.
func ValidAmount(amount decimal.Decimal) bool {
	if amount.Sign() <= 0 {
		return false
	}
	if exp := amount.Exponent(); exp < -maxAmountExponent || exp > maxAmountExponent {
		return false
	}
	if amount.Coefficient().BitLen() > maxCoefficientBits {
		return false
	}
	return amount.IsInteger() && amount.Cmp(MaxAmount) <= 0
}
