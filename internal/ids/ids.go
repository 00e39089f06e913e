// Package ids produces the short references shown to staff for loans,
// payments and disbursements, e.g. L-XK4M.
package ids

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

type Kind string

const (
	KindLoan         Kind = "loan"
	KindPayment      Kind = "payment"
	KindDisbursement Kind = "disbursement"
)

const (
	DefaultLength = 4
	// I, 1, O and 0 are left out so references survive being read aloud.
	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	prefixes = map[Kind]string{
		KindLoan:         "L",
		KindPayment:      "P",
		KindDisbursement: "D",
	}
	validPattern = regexp.MustCompile(`^[LPD]-[A-HJ-NP-Z2-9]{4}$`)
)

// Generate returns a reference for kind. Uniqueness is not checked; with
// 32^4 combinations callers must treat collisions as rare, not impossible.
func Generate(kind Kind, length int) (string, error) {
	prefix, ok := prefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown id kind %q", kind)
	}
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return prefix + "-" + string(buf), nil
}

func Loan() string         { return mustGenerate(KindLoan) }
func Payment() string      { return mustGenerate(KindPayment) }
func Disbursement() string { return mustGenerate(KindDisbursement) }

// IsValid checks the shape of a default-length reference only. It says
// nothing about whether the referenced record exists.
func IsValid(s string) bool {
	return validPattern.MatchString(s)
}

func mustGenerate(kind Kind) string {
	id, err := Generate(kind, DefaultLength)
	if err != nil {
		panic(err)
	}
	return id
}
