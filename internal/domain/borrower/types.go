package borrower

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("borrower_not_found")
	ErrCreateFailed = errors.New("borrower_create_failed")
)

type Entity struct {
	ID                  string          `json:"id"`
	FullName            string          `json:"fullName"`
	Phone               string          `json:"phone"`
	Email               string          `json:"email"`
	Address             string          `json:"address"`
	IDNumber            string          `json:"idNumber"`
	EmploymentStatus    string          `json:"employmentStatus"`
	MonthlyIncome       decimal.Decimal `json:"monthlyIncome"`
	IsFromPaymentImport bool            `json:"isFromPaymentImport"`
	ImportDate          *time.Time      `json:"importDate,omitempty"`
	CreatedBy           string          `json:"createdBy,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

type CreateInput struct {
	FullName            string          `json:"fullName"`
	Phone               string          `json:"phone"`
	Email               string          `json:"email"`
	Address             string          `json:"address"`
	IDNumber            string          `json:"idNumber"`
	EmploymentStatus    string          `json:"employmentStatus"`
	MonthlyIncome       decimal.Decimal `json:"monthlyIncome"`
	IsFromPaymentImport bool            `json:"isFromPaymentImport"`
	ImportDate          *time.Time      `json:"importDate,omitempty"`
	CreatedBy           string          `json:"-"`
}

// SearchFilter matches Phone as a case-insensitive substring when set,
// otherwise Name the same way. Results are oldest first.
type SearchFilter struct {
	Phone string
	Name  string
	Limit int32
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	Search(ctx context.Context, f SearchFilter) ([]Entity, error)
	List(ctx context.Context, limit, offset int32) ([]Entity, error)
	Count(ctx context.Context) (int64, error)
}
