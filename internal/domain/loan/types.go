package loan

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusDefaulted = "defaulted"

	SourceSystem        = "system"
	SourcePaymentImport = "payment_import"
)

var (
	ErrNotFound      = errors.New("loan_not_found")
	ErrInvalidStatus = errors.New("invalid_loan_status")
)

// OpenStatuses are the statuses an incoming payment may be applied to.
var OpenStatuses = []string{StatusActive, StatusPending, StatusApproved}

var validStatuses = map[string]struct{}{
	StatusPending: {}, StatusApproved: {}, StatusActive: {},
	StatusCompleted: {}, StatusRejected: {}, StatusDefaulted: {},
}

func IsValidStatus(status string) bool {
	_, ok := validStatuses[status]
	return ok
}

// Entity.Amount is the outstanding balance, not the original principal.
type Entity struct {
	ID                 string          `json:"id"`
	Reference          string          `json:"reference"`
	BorrowerID         string          `json:"borrowerId"`
	Amount             decimal.Decimal `json:"amount"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	TermDays           int32           `json:"term"`
	Purpose            string          `json:"purpose"`
	Status             string          `json:"status"`
	StartDate          *time.Time      `json:"startDate,omitempty"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	DisbursementDate   *time.Time      `json:"disbursementDate,omitempty"`
	DisbursementMethod string          `json:"disbursementMethod,omitempty"`
	DisbursementRef    string          `json:"disbursementReference,omitempty"`
	Source             string          `json:"source"`
	Notes              string          `json:"notes"`
	CreatedBy          string          `json:"createdBy,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type CreateInput struct {
	Reference    string
	BorrowerID   string
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	TermDays     int32
	Purpose      string
	Status       string
	StartDate    *time.Time
	EndDate      *time.Time
	Source       string
	Notes        string
	CreatedBy    string
}

type ListFilter struct {
	BorrowerID string
	Statuses   []string
	Limit      int32
	Offset     int32
}

type BalanceUpdate struct {
	LoanID string
	Amount decimal.Decimal
	Status string
	Notes  string
}

type DisbursementUpdate struct {
	LoanID    string
	Method    string
	Reference string
	At        time.Time
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	// FindOpenByBorrower returns the oldest loan of the borrower in one of
	// OpenStatuses, or ErrNotFound.
	FindOpenByBorrower(ctx context.Context, borrowerID string) (*Entity, error)
	UpdateBalance(ctx context.Context, in BalanceUpdate) error
	MarkDisbursed(ctx context.Context, in DisbursementUpdate) error
	Count(ctx context.Context) (int64, error)
}
