package db

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washa/backend/internal/config"
)

func NewPostgresPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	maxConnLifetime, err := time.ParseDuration(cfg.DBMaxConnLifetime)
	if err != nil {
		maxConnLifetime = 30 * time.Minute
	}
	poolCfg.MaxConnLifetime = maxConnLifetime

	// The pool dials lazily, so this succeeds while the database is down.
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Handle owns the process's connection pool and tracks whether the
// database currently answers. pgxpool re-dials on its own; Run only keeps
// the readiness flag honest.
type Handle struct {
	pool     *pgxpool.Pool
	ready    atomic.Bool
	interval time.Duration
	logger   *slog.Logger
}

func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Handle, error) {
	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.DBReconnectEvery
	if interval <= 0 {
		interval = 30 * time.Second
	}
	h := &Handle{pool: pool, interval: interval, logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Ping(pingCtx); err != nil {
		logger.Warn("database not reachable at startup", "err", err)
	}
	return h, nil
}

func (h *Handle) Pool() *pgxpool.Pool {
	return h.pool
}

func (h *Handle) IsReady() bool {
	return h.ready.Load()
}

// Ping checks the database and updates readiness with the outcome.
func (h *Handle) Ping(ctx context.Context) error {
	err := h.pool.Ping(ctx)
	was := h.ready.Swap(err == nil)
	switch {
	case err == nil && !was:
		h.logger.Info("database connected")
	case err != nil && was:
		h.logger.Error("database connection lost", "err", err)
	}
	return err
}

// WaitReady pings until the database answers or timeout elapses.
func (h *Handle) WaitReady(ctx context.Context, timeout time.Duration) bool {
	if h.IsReady() {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := h.Ping(ctx); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (h *Handle) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = h.Ping(pingCtx)
			cancel()
		}
	}
}

func (h *Handle) Close() {
	h.ready.Store(false)
	h.pool.Close()
}
