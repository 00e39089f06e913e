package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	"github.com/washa/backend/internal/ids"
	"github.com/washa/backend/internal/money"
)

const (
	SourceManual = "manual adjustment"

	defaultTermDays = 30
)

var (
	ErrInvalidInput     = errors.New("invalid_loan_input")
	ErrInvalidAmount    = errors.New("invalid_paid_amount")
	ErrNotDisbursable   = errors.New("loan_not_disbursable")
	ErrInvalidDisbursal = errors.New("invalid_disbursement_method")
)

// interest_rate is NUMERIC(6,2).
var maxInterestRate = decimal.NewFromInt(10000)

var disbursementMethods = map[string]struct{}{
	"cash": {}, "bank_transfer": {}, "mobile_money": {},
}

type CreateRequest struct {
	BorrowerID   string          `json:"borrowerId"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interestRate"`
	TermDays     int32           `json:"term"`
	Purpose      string          `json:"purpose"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
}

type BorrowerRepository interface {
	GetByID(ctx context.Context, id string) (*borrowerdomain.Entity, error)
}

type Service struct {
	borrowerRepo BorrowerRepository
	loanRepo     Repository
	newRef       func() string
	now          func() time.Time
}

func NewService(borrowerRepo BorrowerRepository, loanRepo Repository) *Service {
	return &Service{
		borrowerRepo: borrowerRepo,
		loanRepo:     loanRepo,
		newRef:       ids.Loan,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, actorID string, in CreateRequest) (*Entity, error) {
	in.BorrowerID = strings.TrimSpace(in.BorrowerID)
	if in.BorrowerID == "" || !money.InRange(in.Amount) || !money.InRange(in.InterestRate) {
		return nil, ErrInvalidInput
	}
	in.Amount, _ = money.Normalize(in.Amount)
	in.InterestRate, _ = money.Normalize(in.InterestRate)
	if !in.Amount.IsPositive() || in.InterestRate.IsNegative() || in.InterestRate.GreaterThanOrEqual(maxInterestRate) {
		return nil, ErrInvalidInput
	}
	if _, err := s.borrowerRepo.GetByID(ctx, in.BorrowerID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !IsValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}
	if in.TermDays <= 0 {
		in.TermDays = defaultTermDays
	}

	start := s.now()
	end := start.Add(time.Duration(in.TermDays) * 24 * time.Hour)
	return s.loanRepo.Create(ctx, CreateInput{
		Reference:    s.newRef(),
		BorrowerID:   in.BorrowerID,
		Amount:       in.Amount,
		InterestRate: in.InterestRate,
		TermDays:     in.TermDays,
		Purpose:      strings.TrimSpace(in.Purpose),
		Status:       in.Status,
		StartDate:    &start,
		EndDate:      &end,
		Source:       SourceSystem,
		Notes:        strings.TrimSpace(in.Notes),
		CreatedBy:    actorID,
	})
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entity, error) {
	for _, st := range filter.Statuses {
		if !IsValidStatus(st) {
			return nil, ErrInvalidStatus
		}
	}
	return s.loanRepo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, loanID string) (*Entity, error) {
	if strings.TrimSpace(loanID) == "" {
		return nil, fmt.Errorf("missing_loan_id")
	}
	return s.loanRepo.GetByID(ctx, loanID)
}

// ReduceBalance applies a payment that was recorded outside an import.
func (s *Service) ReduceBalance(ctx context.Context, loanID string, paid decimal.Decimal, source string) (*BalanceChange, error) {
	paid, ok := money.Normalize(paid)
	if !ok || !paid.IsPositive() {
		return nil, ErrInvalidAmount
	}
	item, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = SourceManual
	}
	change := ApplyPayment(item, paid, source)
	if err := s.loanRepo.UpdateBalance(ctx, BalanceUpdate{
		LoanID: item.ID,
		Amount: item.Amount,
		Status: item.Status,
		Notes:  item.Notes,
	}); err != nil {
		return nil, err
	}
	return &change, nil
}

func (s *Service) Disburse(ctx context.Context, loanID, method string) (*Entity, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if _, ok := disbursementMethods[method]; !ok {
		return nil, ErrInvalidDisbursal
	}
	item, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusPending && item.Status != StatusApproved {
		return nil, ErrNotDisbursable
	}
	if err := s.loanRepo.MarkDisbursed(ctx, DisbursementUpdate{
		LoanID:    item.ID,
		Method:    method,
		Reference: ids.Disbursement(),
		At:        s.now(),
	}); err != nil {
		return nil, err
	}
	return s.loanRepo.GetByID(ctx, item.ID)
}
