package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
	MethodMobileMoney  = "mobile_money"
	MethodCheck        = "check"

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

var ErrNotFound = errors.New("payment_not_found")

var methods = map[string]struct{}{
	MethodCash: {}, MethodBankTransfer: {}, MethodMobileMoney: {}, MethodCheck: {},
}

var statuses = map[string]struct{}{
	StatusPending: {}, StatusCompleted: {}, StatusFailed: {}, StatusRefunded: {},
}

// NormalizeMethod maps anything outside the known set to mobile money,
// which is how imported statements arrive.
func NormalizeMethod(m string) string {
	if _, ok := methods[m]; ok {
		return m
	}
	return MethodMobileMoney
}

func IsValidStatus(s string) bool {
	_, ok := statuses[s]
	return ok
}

// Entity is immutable once written.
type Entity struct {
	ID            string          `json:"id"`
	Reference     string          `json:"reference"`
	LoanID        string          `json:"loanId"`
	Seq           int64           `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Method        string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes"`
	ReceiptNumber string          `json:"receiptNumber"`
	IsFromImport  bool            `json:"isFromImport"`
	ImportDate    *time.Time      `json:"importDate,omitempty"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// View is a payment joined with the borrower it was collected from.
type View struct {
	Entity
	LoanReference string `json:"loanReference"`
	BorrowerID    string `json:"borrowerId"`
	BorrowerName  string `json:"borrowerName"`
	BorrowerPhone string `json:"borrowerPhone"`
}

type CreateInput struct {
	Reference     string
	LoanID        string
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Method        string
	Status        string
	Notes         string
	ReceiptNumber string
	IsFromImport  bool
	ImportDate    *time.Time
	CreatedBy     string
}

// ListFilter.Search matches borrower name, borrower phone or receipt
// number, case-insensitively.
type ListFilter struct {
	LoanID string
	Status string
	Search string
	Limit  int32
	Offset int32
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]View, int64, error)
	CountImported(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}
