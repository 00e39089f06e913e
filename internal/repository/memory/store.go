// Package memory implements the repository interfaces in process. It backs
// STORE_DRIVER=memory for demos and the service tests; nothing survives a
// restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/washa/backend/internal/db"
	admindomain "github.com/washa/backend/internal/domain/admin"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
)

// Store is always ready. Slices keep insertion order, which doubles as
// creation order.
type Store struct {
	mu        sync.RWMutex
	users     []db.User
	sessions  []db.Session
	borrowers []borrowerdomain.Entity
	loans     []loandomain.Entity
	payments  []paymentdomain.Entity
	audit     []admindomain.AuditLogInput
	seq       int64
	now       func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) IsReady() bool { return true }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Borrowers() *BorrowerRepository { return &BorrowerRepository{s: s} }
func (s *Store) Loans() *LoanRepository         { return &LoanRepository{s: s} }
func (s *Store) Payments() *PaymentRepository   { return &PaymentRepository{s: s} }
func (s *Store) Auth() *AuthRepository          { return &AuthRepository{s: s} }
func (s *Store) Audit() *AuditRepository        { return &AuditRepository{s: s} }
func (s *Store) Realtime() *RealtimeRepository  { return &RealtimeRepository{s: s} }

// AuditLog returns a copy of every audit entry written so far.
func (s *Store) AuditLog() []admindomain.AuditLogInput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]admindomain.AuditLogInput(nil), s.audit...)
}

func newID() string {
	return uuid.NewString()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

type AuditRepository struct {
	s *Store
}

func (r *AuditRepository) Log(_ context.Context, in admindomain.AuditLogInput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, in)
	return nil
}
