package memory

import (
	"context"

	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
)

type BorrowerRepository struct {
	s *Store
}

func (r *BorrowerRepository) Create(_ context.Context, in borrowerdomain.CreateInput) (*borrowerdomain.Entity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item := borrowerdomain.Entity{
		ID:                  newID(),
		FullName:            in.FullName,
		Phone:               in.Phone,
		Email:               in.Email,
		Address:             in.Address,
		IDNumber:            in.IDNumber,
		EmploymentStatus:    in.EmploymentStatus,
		MonthlyIncome:       in.MonthlyIncome,
		IsFromPaymentImport: in.IsFromPaymentImport,
		ImportDate:          in.ImportDate,
		CreatedBy:           in.CreatedBy,
		CreatedAt:           r.s.now(),
	}
	r.s.borrowers = append(r.s.borrowers, item)
	return &item, nil
}

func (r *BorrowerRepository) GetByID(_ context.Context, id string) (*borrowerdomain.Entity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.borrowers {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, borrowerdomain.ErrNotFound
}

func (r *BorrowerRepository) Search(_ context.Context, f borrowerdomain.SearchFilter) ([]borrowerdomain.Entity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]borrowerdomain.Entity, 0)
	for _, b := range r.s.borrowers {
		var hit bool
		if f.Phone != "" {
			hit = containsFold(b.Phone, f.Phone)
		} else {
			hit = f.Name != "" && containsFold(b.FullName, f.Name)
		}
		if hit {
			out = append(out, b)
		}
	}
	return page(out, f.Limit, 0), nil
}

func (r *BorrowerRepository) List(_ context.Context, limit, offset int32) ([]borrowerdomain.Entity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]borrowerdomain.Entity, 0, len(r.s.borrowers))
	for i := len(r.s.borrowers) - 1; i >= 0; i-- {
		out = append(out, r.s.borrowers[i])
	}
	return page(out, limit, offset), nil
}

func (r *BorrowerRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.borrowers)), nil
}
