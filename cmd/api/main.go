package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/washa/backend/internal/config"
	"github.com/washa/backend/internal/observability"
	"github.com/washa/backend/internal/server"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(sigCtx, 10*time.Second)
	stores, err := server.OpenStores(openCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer stores.Conn.Close()

	app := server.Wire(cfg, logger, stores)

	go func() { _ = stores.Conn.Run(sigCtx) }()
	go func() { _ = app.Notifier.Run(sigCtx) }()
	go bootstrap(sigCtx, cfg, app, logger)

	r := server.NewRouter(cfg, logger, app.Deps)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr(), "store", stores.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}

// bootstrap waits for the store, then creates the first admin and runs the
// startup import. Neither blocks the server from answering.
func bootstrap(ctx context.Context, cfg config.Config, app *server.App, logger *slog.Logger) {
	if !app.Stores.Conn.WaitReady(ctx, cfg.DBStartupWait) {
		logger.Warn("store not ready, skipping bootstrap", "waited", cfg.DBStartupWait.String())
		return
	}

	actorID := ""
	if cfg.BootstrapAdminPassword != "" {
		admin, created, err := app.Auth.EnsureAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword, cfg.BootstrapAdminEmail, cfg.BootstrapAdminFullName)
		if err != nil {
			logger.Error("bootstrap admin failed", "err", err)
		} else {
			actorID = admin.ID
			if created {
				logger.Info("bootstrap admin created", "username", admin.Username)
			}
		}
	}

	if !cfg.ImportStartupEnabled {
		return
	}
	outcome, err := app.Orchestrator.StartupSweep(ctx, cfg.ImportStartupPath, actorID)
	if err != nil {
		logger.Error("startup import failed", "path", cfg.ImportStartupPath, "err", err)
		return
	}
	if outcome.Ran {
		logger.Info("startup import completed",
			"processed", outcome.Result.Processed,
			"new_users", outcome.Result.NewUsers,
			"errors", len(outcome.Result.Errors),
		)
	}
}
