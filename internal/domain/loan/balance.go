package loan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type BalanceChange struct {
	LoanID   string          `json:"id"`
	Previous decimal.Decimal `json:"previousBalance"`
	New      decimal.Decimal `json:"newBalance"`
	Paid     decimal.Decimal `json:"paidAmount"`
	Status   string          `json:"status"`
	Note     string          `json:"-"`
}

// ApplyPayment reduces the outstanding balance of e by paid, floored at
// zero. A loan that reaches zero becomes completed and stays completed.
// The note is appended to e.Notes; earlier lines are never rewritten.
func ApplyPayment(e *Entity, paid decimal.Decimal, source string) BalanceChange {
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	previous := e.Amount
	next := decimal.Max(decimal.Zero, previous.Sub(paid))

	e.Amount = next
	if next.IsZero() {
		e.Status = StatusCompleted
	}

	note := fmt.Sprintf("Payment of %s processed from %s. Balance reduced from %s to %s.",
		paid.String(), source, previous.String(), next.String())
	e.Notes = AppendNote(e.Notes, note)

	return BalanceChange{
		LoanID:   e.ID,
		Previous: previous,
		New:      next,
		Paid:     paid,
		Status:   e.Status,
		Note:     note,
	}
}

func AppendNote(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
