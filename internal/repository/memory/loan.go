package memory

import (
	"context"
	"slices"
	"time"

	loandomain "github.com/washa/backend/internal/domain/loan"
)

type LoanRepository struct {
	s *Store
}

func (r *LoanRepository) Create(_ context.Context, in loandomain.CreateInput) (*loandomain.Entity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	item := loandomain.Entity{
		ID:           newID(),
		Reference:    in.Reference,
		BorrowerID:   in.BorrowerID,
		Amount:       in.Amount,
		InterestRate: in.InterestRate,
		TermDays:     in.TermDays,
		Purpose:      in.Purpose,
		Status:       in.Status,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Source:       in.Source,
		Notes:        in.Notes,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.loans = append(r.s.loans, item)
	return &item, nil
}

func (r *LoanRepository) GetByID(_ context.Context, id string) (*loandomain.Entity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		item := r.s.loans[i]
		return &item, nil
	}
	return nil, loandomain.ErrNotFound
}

func (r *LoanRepository) FindOpenByBorrower(_ context.Context, borrowerID string) (*loandomain.Entity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.loans {
		if l.BorrowerID == borrowerID && slices.Contains(loandomain.OpenStatuses, l.Status) {
			return &l, nil
		}
	}
	return nil, loandomain.ErrNotFound
}

func (r *LoanRepository) List(_ context.Context, f loandomain.ListFilter) ([]loandomain.Entity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if f.Limit <= 0 {
		f.Limit = 50
	}
	out := make([]loandomain.Entity, 0)
	for i := len(r.s.loans) - 1; i >= 0; i-- {
		l := r.s.loans[i]
		if f.BorrowerID != "" && l.BorrowerID != f.BorrowerID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, l.Status) {
			continue
		}
		out = append(out, l)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *LoanRepository) UpdateBalance(_ context.Context, in loandomain.BalanceUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(in.LoanID)
	if i < 0 {
		return loandomain.ErrNotFound
	}
	l := &r.s.loans[i]
	l.Amount = in.Amount
	l.Status = in.Status
	l.Notes = in.Notes
	l.UpdatedAt = r.s.now()
	return nil
}

func (r *LoanRepository) MarkDisbursed(_ context.Context, in loandomain.DisbursementUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(in.LoanID)
	if i < 0 {
		return loandomain.ErrNotFound
	}
	l := &r.s.loans[i]
	if l.Status != loandomain.StatusPending && l.Status != loandomain.StatusApproved {
		return loandomain.ErrNotDisbursable
	}
	at := in.At
	end := at.Add(time.Duration(l.TermDays) * 24 * time.Hour)
	l.Status = loandomain.StatusActive
	l.DisbursementDate = &at
	l.DisbursementMethod = in.Method
	l.DisbursementRef = in.Reference
	l.StartDate = &at
	l.EndDate = &end
	l.UpdatedAt = r.s.now()
	return nil
}

func (r *LoanRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.loans)), nil
}

// index must be called with the lock held.
func (r *LoanRepository) index(id string) int {
	for i := range r.s.loans {
		if r.s.loans[i].ID == id {
			return i
		}
	}
	return -1
}
