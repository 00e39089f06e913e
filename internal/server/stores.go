package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/washa/backend/internal/auth"
	"github.com/washa/backend/internal/config"
	"github.com/washa/backend/internal/db"
	admindomain "github.com/washa/backend/internal/domain/admin"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/repository/memory"
	postgresrepo "github.com/washa/backend/internal/repository/postgres"
	"github.com/washa/backend/internal/ws"
)

type UserStore interface {
	auth.Repository
	admindomain.UserRepository
}

// Connection is what the process needs from whichever store backs it.
type Connection interface {
	IsReady() bool
	Ping(ctx context.Context) error
	WaitReady(ctx context.Context, timeout time.Duration) bool
	Run(ctx context.Context) error
	Close()
}

type Stores struct {
	Driver    string
	Conn      Connection
	Users     UserStore
	Audit     admindomain.AuditRepository
	Borrowers borrowerdomain.Repository
	Loans     loandomain.Repository
	Payments  paymentdomain.Repository
	Realtime  ws.RealtimeRepository
}

// OpenStores builds the repositories for cfg.StoreDriver. A postgres store
// is returned even when the database is down; Conn reports readiness.
func OpenStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return MemoryStores(memory.New()), nil
	case config.StoreDriverPostgres, "":
		handle, err := db.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		pool := handle.Pool()
		return &Stores{
			Driver:    config.StoreDriverPostgres,
			Conn:      handle,
			Users:     db.NewAuthRepository(pool),
			Audit:     postgresrepo.NewAuditRepository(pool),
			Borrowers: postgresrepo.NewBorrowerRepository(pool),
			Loans:     postgresrepo.NewLoanRepository(pool),
			Payments:  postgresrepo.NewPaymentRepository(pool),
			Realtime:  postgresrepo.NewWSRepository(pool),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func MemoryStores(store *memory.Store) *Stores {
	return &Stores{
		Driver:    config.StoreDriverMemory,
		Conn:      memoryConn{store},
		Users:     store.Auth(),
		Audit:     store.Audit(),
		Borrowers: store.Borrowers(),
		Loans:     store.Loans(),
		Payments:  store.Payments(),
		Realtime:  store.Realtime(),
	}
}

type memoryConn struct {
	*memory.Store
}

func (memoryConn) WaitReady(context.Context, time.Duration) bool { return true }

func (memoryConn) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (memoryConn) Close() {}
