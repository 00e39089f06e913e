package money

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(14,2).
const (
	Scale        = 2
	maxIntDigits = 12
	// Finer scales than this are never legitimate input and rounding them
	// means dividing by an enormous power of ten.
	minExponent = -32
)

// InRange reports whether d fits the amount column before rounding. It
// only looks at the exponent and coefficient so a value like 1e900000000
// is rejected without being expanded.
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < minExponent || exp > maxIntDigits {
		return false
	}
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return true
	}
	digits := len(new(big.Int).Abs(coef).String())
	return digits+int(exp) <= maxIntDigits
}

// Normalize rounds d to cents. ok is false when d cannot be stored, in
// which case the zero amount is returned.
func Normalize(d decimal.Decimal) (decimal.Decimal, bool) {
	if !InRange(d) {
		return decimal.Zero, false
	}
	r := d.Round(Scale)
	if !InRange(r) {
		return decimal.Zero, false
	}
	return r, true
}
