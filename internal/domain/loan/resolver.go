package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	"github.com/washa/backend/internal/ids"
)

const (
	importPurpose = "Payment Import - Original loan amount estimated"
	importNote    = "Loan created from payment import. Original loan details unknown."
)

// ImportPolicy shapes the loans synthesized for imported payments whose
// borrower has no open loan. The original principal is unknown, so it is
// estimated as PrincipalFactor times the observed payment total.
type ImportPolicy struct {
	PrincipalFactor decimal.Decimal
	InterestRate    decimal.Decimal
	TermDays        int32
}

func DefaultImportPolicy() ImportPolicy {
	return ImportPolicy{
		PrincipalFactor: decimal.NewFromInt(2),
		InterestRate:    decimal.NewFromInt(10),
		TermDays:        30,
	}
}

type Resolver struct {
	repo   Repository
	policy ImportPolicy
	newRef func() string
	now    func() time.Time
}

func NewResolver(repo Repository, policy ImportPolicy) *Resolver {
	if !policy.PrincipalFactor.IsPositive() {
		policy.PrincipalFactor = DefaultImportPolicy().PrincipalFactor
	}
	if policy.TermDays <= 0 {
		policy.TermDays = DefaultImportPolicy().TermDays
	}
	return &Resolver{
		repo:   repo,
		policy: policy,
		newRef: ids.Loan,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Resolve returns the borrower's first open loan, or creates an active one
// sized from observedTotal. created reports which happened.
func (r *Resolver) Resolve(ctx context.Context, b *borrowerdomain.Entity, observedTotal decimal.Decimal, actorID string) (item *Entity, created bool, err error) {
	if b == nil || b.ID == "" {
		return nil, false, fmt.Errorf("resolve loan: missing borrower")
	}

	existing, err := r.repo.FindOpenByBorrower(ctx, b.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("find open loan: %w", err)
	}

	start := r.now()
	end := start.Add(time.Duration(r.policy.TermDays) * 24 * time.Hour)
	item, err = r.repo.Create(ctx, CreateInput{
		Reference:    r.newRef(),
		BorrowerID:   b.ID,
		Amount:       observedTotal.Mul(r.policy.PrincipalFactor),
		InterestRate: r.policy.InterestRate,
		TermDays:     r.policy.TermDays,
		Purpose:      importPurpose,
		Status:       StatusActive,
		StartDate:    &start,
		EndDate:      &end,
		Source:       SourcePaymentImport,
		Notes:        importNote,
		CreatedBy:    actorID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create import loan: %w", err)
	}
	return item, true, nil
}
