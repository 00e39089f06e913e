package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/ids"
)

type PaymentWriter interface {
	Create(ctx context.Context, in paymentdomain.CreateInput) (*paymentdomain.Entity, error)
}

type BalanceWriter interface {
	UpdateBalance(ctx context.Context, in loandomain.BalanceUpdate) error
}

// Ledger writes imported transactions and the balance change they imply.
type Ledger struct {
	payments PaymentWriter
	loans    BalanceWriter
	newRef   func() string
	now      func() time.Time
}

func NewLedger(payments PaymentWriter, loans BalanceWriter) *Ledger {
	return &Ledger{
		payments: payments,
		loans:    loans,
		newRef:   ids.Payment,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *Ledger) RecordTransaction(ctx context.Context, loan *loandomain.Entity, tx Transaction, actorID string) (*paymentdomain.Entity, error) {
	importedAt := l.now()
	paidAt := importedAt
	if tx.Date != nil {
		paidAt = *tx.Date
	}
	notes := "Imported payment - Transaction ID: " + tx.Reference
	if tx.Notes != "" {
		notes = loandomain.AppendNote(notes, tx.Notes)
	}

	out, err := l.payments.Create(ctx, paymentdomain.CreateInput{
		Reference:     l.newRef(),
		LoanID:        loan.ID,
		Amount:        tx.Amount,
		PaymentDate:   paidAt,
		Method:        paymentdomain.NormalizeMethod(tx.Method),
		Status:        paymentdomain.StatusCompleted,
		Notes:         notes,
		ReceiptNumber: tx.Reference,
		IsFromImport:  true,
		ImportDate:    &importedAt,
		CreatedBy:     actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("record payment %s: %w", tx.Reference, err)
	}
	return out, nil
}

// ApplyBalance reduces loan by total once and persists the new balance,
// status and notes. loan is updated in place.
func (l *Ledger) ApplyBalance(ctx context.Context, loan *loandomain.Entity, total decimal.Decimal, source string) (loandomain.BalanceChange, error) {
	change := loandomain.ApplyPayment(loan, total, source)
	err := l.loans.UpdateBalance(ctx, loandomain.BalanceUpdate{
		LoanID: loan.ID,
		Amount: loan.Amount,
		Status: loan.Status,
		Notes:  loan.Notes,
	})
	if err != nil {
		return change, fmt.Errorf("update loan balance: %w", err)
	}
	return change, nil
}
