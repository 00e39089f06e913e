package memory

import (
	"context"
	"sort"

	paymentdomain "github.com/washa/backend/internal/domain/payment"
)

type PaymentRepository struct {
	s *Store
}

func (r *PaymentRepository) Create(_ context.Context, in paymentdomain.CreateInput) (*paymentdomain.Entity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.seq++
	item := paymentdomain.Entity{
		ID:            newID(),
		Reference:     in.Reference,
		LoanID:        in.LoanID,
		Seq:           r.s.seq,
		Amount:        in.Amount,
		PaymentDate:   in.PaymentDate,
		Method:        in.Method,
		Status:        in.Status,
		Notes:         in.Notes,
		ReceiptNumber: in.ReceiptNumber,
		IsFromImport:  in.IsFromImport,
		ImportDate:    in.ImportDate,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     r.s.now(),
	}
	r.s.payments = append(r.s.payments, item)
	return &item, nil
}

func (r *PaymentRepository) List(_ context.Context, f paymentdomain.ListFilter) ([]paymentdomain.View, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]paymentdomain.View, 0)
	for _, p := range r.s.payments {
		if f.LoanID != "" && p.LoanID != f.LoanID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		v := r.s.view(p)
		if f.Search != "" &&
			!containsFold(v.BorrowerName, f.Search) &&
			!containsFold(v.BorrowerPhone, f.Search) &&
			!containsFold(v.ReceiptNumber, f.Search) {
			continue
		}
		matched = append(matched, v)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].PaymentDate.Equal(matched[j].PaymentDate) {
			return matched[i].PaymentDate.After(matched[j].PaymentDate)
		}
		return matched[i].Seq > matched[j].Seq
	})

	if f.Limit <= 0 {
		f.Limit = 10
	}
	return page(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r *PaymentRepository) CountImported(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, p := range r.s.payments {
		if p.IsFromImport {
			n++
		}
	}
	return n, nil
}

func (r *PaymentRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.payments)), nil
}

type RealtimeRepository struct {
	s *Store
}

func (r *RealtimeRepository) ListPaymentsSince(_ context.Context, lastSeq int64, limit int32) ([]paymentdomain.View, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]paymentdomain.View, 0)
	for _, p := range r.s.payments {
		if p.Seq > lastSeq {
			out = append(out, r.s.view(p))
		}
	}
	if limit <= 0 {
		limit = 100
	}
	return page(out, limit, 0), nil
}

func (r *RealtimeRepository) LatestPaymentSeq(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.seq, nil
}

// view must be called with the lock held.
func (s *Store) view(p paymentdomain.Entity) paymentdomain.View {
	v := paymentdomain.View{Entity: p}
	for _, l := range s.loans {
		if l.ID != p.LoanID {
			continue
		}
		v.LoanReference = l.Reference
		v.BorrowerID = l.BorrowerID
		for _, b := range s.borrowers {
			if b.ID == l.BorrowerID {
				v.BorrowerName = b.FullName
				v.BorrowerPhone = b.Phone
				break
			}
		}
		break
	}
	return v
}
