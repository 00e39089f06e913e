package server

import (
	"log/slog"

	"github.com/washa/backend/internal/auth"
	"github.com/washa/backend/internal/config"
	admindomain "github.com/washa/backend/internal/domain/admin"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/http/handlers"
	"github.com/washa/backend/internal/reconcile"
	"github.com/washa/backend/internal/ws"
)

// App holds the wired services of one process.
type App struct {
	Stores       *Stores
	Auth         *auth.Service
	Admin        *admindomain.Service
	Orchestrator *reconcile.Orchestrator
	Hub          *ws.Hub
	Notifier     *ws.Notifier
	Deps         Dependencies
}

func Wire(cfg config.Config, logger *slog.Logger, stores *Stores) *App {
	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	authService := auth.NewService(stores.Users, jwtManager, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	adminService := admindomain.NewService(stores.Users, stores.Audit)

	borrowerService := borrowerdomain.NewService(stores.Borrowers)
	loanService := loandomain.NewService(stores.Borrowers, stores.Loans)
	paymentService := paymentdomain.NewService(stores.Payments, stores.Loans)

	orchestrator := reconcile.NewOrchestrator(
		stores.Conn,
		borrowerdomain.NewResolver(stores.Borrowers),
		loandomain.NewResolver(stores.Loans, loandomain.ImportPolicy{
			PrincipalFactor: cfg.ImportPrincipalFactor,
			InterestRate:    cfg.ImportLoanInterestRate,
			TermDays:        cfg.ImportLoanTermDays,
		}),
		reconcile.NewLedger(stores.Payments, stores.Loans),
		stores.Payments,
		logger,
	)

	hub := ws.NewHub()
	cookieCfg := auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}

	return &App{
		Stores:       stores,
		Auth:         authService,
		Admin:        adminService,
		Orchestrator: orchestrator,
		Hub:          hub,
		Notifier:     ws.NewNotifier(stores.Realtime, hub, cfg.WSPollInterval, logger),
		Deps: Dependencies{
			Pinger:          stores.Conn,
			Readiness:       stores.Conn,
			Authenticator:   authService,
			AuthHandler:     handlers.NewAuthHandler(authService, cookieCfg, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
			UserHandler:     handlers.NewUserHandler(adminService, authService),
			BorrowerHandler: handlers.NewBorrowerHandler(borrowerService),
			LoanHandler:     handlers.NewLoanHandler(loanService, paymentService),
			PaymentHandler:  handlers.NewPaymentHandler(paymentService, orchestrator, adminService, cfg.ImportStartupPath),
			StatusHandler:   handlers.NewStatusHandler(stores.Loans, stores.Borrowers, stores.Payments),
			WSHandler:       ws.NewHandler(hub),
		},
	}
}
