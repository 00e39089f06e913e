package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/washa/backend/internal/config"
	"github.com/washa/backend/internal/db"
	"github.com/washa/backend/internal/http/handlers"
	"github.com/washa/backend/internal/http/middleware"
	"github.com/washa/backend/internal/version"
	"github.com/washa/backend/internal/ws"
)

type Dependencies struct {
	Pinger          handlers.Pinger
	Readiness       handlers.Readiness
	Authenticator   middleware.Authenticator
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	BorrowerHandler *handlers.BorrowerHandler
	LoanHandler     *handlers.LoanHandler
	PaymentHandler  *handlers.PaymentHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *ws.Handler
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	r.Use(middleware.RequestBodyLimit(cfg.HTTPMaxBodyBytes))

	health := handlers.NewHealthHandler(deps.Pinger, deps.Readiness)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version, cfg.StoreDriver)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)

	api := r.Group("/api")
	api.GET("/meta", meta.GetMeta)
	api.GET("/db/status", health.DBStatus)

	if deps.AuthHandler == nil || deps.Authenticator == nil {
		r.NoRoute(notFound)
		return r
	}

	requireAuth := middleware.RequireAuth(deps.Authenticator, cfg.AuthEnableBearer)
	staff := middleware.RequireRole(db.RoleAdmin, db.RoleLoanOfficer)
	admin := middleware.RequireRole(db.RoleAdmin)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", deps.AuthHandler.Register)
	authGroup.POST("/login", deps.AuthHandler.Login)
	authGroup.POST("/refresh", deps.AuthHandler.Refresh)

	protectedAuth := authGroup.Group("")
	protectedAuth.Use(requireAuth)
	protectedAuth.POST("/logout", deps.AuthHandler.Logout)
	protectedAuth.GET("/me", deps.AuthHandler.Me)

	protected := api.Group("")
	protected.Use(requireAuth)

	if deps.StatusHandler != nil {
		protected.GET("/data-status", deps.StatusHandler.DataStatus)
	}

	if deps.UserHandler != nil {
		protected.GET("/users/count", deps.UserHandler.Count)
		protected.GET("/users/profile", deps.UserHandler.Profile)
		protected.GET("/users/sessions", deps.UserHandler.Sessions)
		protected.GET("/users", admin, deps.UserHandler.List)
		protected.GET("/sessions/active", admin, deps.UserHandler.ActiveSessions)
		protected.PATCH("/users/:userId/status", admin, deps.UserHandler.UpdateStatus)
		protected.PATCH("/users/:userId/role", admin, deps.UserHandler.UpdateRole)
	}

	if deps.BorrowerHandler != nil {
		protected.GET("/borrowers/search", deps.BorrowerHandler.Search)
		protected.GET("/borrowers", deps.BorrowerHandler.List)
		protected.GET("/borrowers/:borrowerId", deps.BorrowerHandler.Get)
		protected.POST("/borrowers", staff, deps.BorrowerHandler.Create)
	}

	if deps.LoanHandler != nil {
		protected.GET("/loans", deps.LoanHandler.List)
		protected.GET("/loans/:loanId", deps.LoanHandler.Get)
		protected.GET("/loans/:loanId/payments", deps.LoanHandler.ListPayments)
		protected.POST("/loans", staff, deps.LoanHandler.Create)
		protected.PATCH("/loans/:loanId/reduce-balance", staff, deps.LoanHandler.ReduceBalance)
		protected.POST("/loans/:loanId/disburse", staff, deps.LoanHandler.Disburse)
	}

	if deps.PaymentHandler != nil {
		protected.GET("/payments", deps.PaymentHandler.List)
		protected.POST("/payments", staff, deps.PaymentHandler.Create)
		protected.POST("/payments/process-json", staff, deps.PaymentHandler.ProcessJSON)
		protected.POST("/payments/process-csv", staff, deps.PaymentHandler.ProcessCSV)
		protected.POST("/payments/process-startup", admin, deps.PaymentHandler.ProcessStartup)
	}

	if deps.WSHandler != nil {
		protected.GET("/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(notFound)
	return r
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
}
