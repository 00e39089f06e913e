package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	loandomain "github.com/washa/backend/internal/domain/loan"
	"github.com/washa/backend/internal/ids"
	"github.com/washa/backend/internal/money"
)

const maxPageSize = 100

var (
	ErrInvalidInput  = errors.New("invalid_payment_input")
	ErrInvalidStatus = errors.New("invalid_payment_status")
)

type RecordRequest struct {
	LoanID        string          `json:"loanId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *time.Time      `json:"paymentDate"`
	Method        string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes"`
	ReceiptNumber string          `json:"receiptNumber"`
}

type Page struct {
	Items []View `json:"payments"`
	Total int64  `json:"total"`
	Page  int32  `json:"page"`
	Pages int64  `json:"pages"`
}

type LoanReader interface {
	GetByID(ctx context.Context, id string) (*loandomain.Entity, error)
}

type Service struct {
	repo   Repository
	loans  LoanReader
	newRef func() string
	now    func() time.Time
}

func NewService(repo Repository, loans LoanReader) *Service {
	return &Service{
		repo:   repo,
		loans:  loans,
		newRef: ids.Payment,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record stores a manually entered payment. It does not touch the loan
// balance; staff reduce it separately.
func (s *Service) Record(ctx context.Context, actorID string, in RecordRequest) (*Entity, error) {
	in.LoanID = strings.TrimSpace(in.LoanID)
	amount, ok := money.Normalize(in.Amount)
	if in.LoanID == "" || !ok || !amount.IsPositive() {
		return nil, ErrInvalidInput
	}
	in.Amount = amount
	if in.Status == "" {
		in.Status = StatusCompleted
	}
	if !IsValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}
	if _, err := s.loans.GetByID(ctx, in.LoanID); err != nil {
		return nil, err
	}
	paidAt := s.now()
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		paidAt = in.PaymentDate.UTC()
	}
	return s.repo.Create(ctx, CreateInput{
		Reference:     s.newRef(),
		LoanID:        in.LoanID,
		Amount:        in.Amount,
		PaymentDate:   paidAt,
		Method:        NormalizeMethod(strings.ToLower(strings.TrimSpace(in.Method))),
		Status:        in.Status,
		Notes:         strings.TrimSpace(in.Notes),
		ReceiptNumber: strings.TrimSpace(in.ReceiptNumber),
		CreatedBy:     actorID,
	})
}

func (s *Service) List(ctx context.Context, f ListFilter, page int32) (*Page, error) {
	if f.Status != "" && !IsValidStatus(f.Status) {
		return nil, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	f.Offset = (page - 1) * f.Limit
	f.Search = strings.TrimSpace(f.Search)

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := total / int64(f.Limit)
	if total%int64(f.Limit) != 0 {
		pages++
	}
	return &Page{Items: items, Total: total, Page: page, Pages: pages}, nil
}

func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]View, error) {
	items, _, err := s.repo.List(ctx, ListFilter{LoanID: loanID, Limit: maxPageSize})
	return items, err
}
