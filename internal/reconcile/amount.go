package reconcile

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/washa/backend/internal/money"
)

// Plain decimal notation only. Exponents are not accepted.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// Longer prefixes cannot fit NUMERIC(14,2) at any sensible scale.
const maxAmountText = 40

// ParseAmount reads the leading number of s, ignoring thousands
// separators, and rounds it to cents. Anything unparseable, negative or
// too large to store counts as zero so a bad row can never push a
// balance upwards.
func ParseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	m := leadingNumber.FindString(s)
	if m == "" || len(m) > maxAmountText {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	d, ok := money.Normalize(d)
	if !ok {
		return decimal.Zero
	}
	return d
}
