package borrower

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeNew     Outcome = "new"
	OutcomeMatched Outcome = "matched"
)

type Resolution struct {
	Borrower *Entity
	Outcome  Outcome
}

func (r Resolution) IsNew() bool {
	return r.Outcome == OutcomeNew
}

// Resolver finds the borrower an imported payment belongs to, creating one
// when nothing matches. The first hit wins; there is no ranking.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *Resolver) Resolve(ctx context.Context, phone, fullName, actorID string) (*Resolution, error) {
	phone = strings.TrimSpace(phone)
	fullName = strings.TrimSpace(fullName)
	if phone == "" && fullName == "" {
		return nil, fmt.Errorf("resolve borrower: missing identifier")
	}

	if phone != "" {
		found, err := r.first(ctx, SearchFilter{Phone: phone, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("search borrower by phone: %w", err)
		}
		if found != nil {
			return &Resolution{Borrower: found, Outcome: OutcomeMatched}, nil
		}
	}
	if fullName != "" {
		found, err := r.first(ctx, SearchFilter{Name: fullName, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("search borrower by name: %w", err)
		}
		if found != nil {
			return &Resolution{Borrower: found, Outcome: OutcomeMatched}, nil
		}
	}

	name := fullName
	if name == "" {
		name = phone
	}
	importedAt := r.now()
	created, err := r.repo.Create(ctx, CreateInput{
		FullName:            name,
		Phone:               phone,
		EmploymentStatus:    "Unknown",
		MonthlyIncome:       decimal.Zero,
		IsFromPaymentImport: true,
		ImportDate:          &importedAt,
		CreatedBy:           actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	return &Resolution{Borrower: created, Outcome: OutcomeNew}, nil
}

func (r *Resolver) first(ctx context.Context, f SearchFilter) (*Entity, error) {
	items, err := r.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	out := items[0]
	return &out, nil
}
