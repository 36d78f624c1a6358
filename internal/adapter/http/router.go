package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/procureledger/internal/adapter/http/handler"
	"github.com/iho/procureledger/internal/adapter/http/middleware"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/infrastructure/metrics"
	"github.com/iho/procureledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	LedgerHandler   *handler.LedgerHandler
	BudgetHandler   *handler.BudgetHandler
	ApprovalHandler *handler.ApprovalHandler
	TaskHandler     *handler.TaskHandler
	HealthHandler   *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// TokenVerifier enables bearer authentication. When nil, every request
	// acts as AnonymousUser.
	TokenVerifier middleware.TokenVerifier
	AnonymousUser *domain.User

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	RateLimitRequests int
	RateLimitWindow   time.Duration

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestMeta)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimitRequests > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
		} else if cfg.AnonymousUser != nil {
			r.Use(middleware.StaticUser(cfg.AnonymousUser))
		}

		// Keys are scoped by user, so this runs after authentication.
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/history", cfg.AccountHandler.History)
			r.With(middleware.RequirePoster).Post("/", cfg.AccountHandler.Create)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(middleware.RequirePoster)
			r.Post("/entries", cfg.LedgerHandler.RecordEntry)
			r.Post("/cash-allocations", cfg.LedgerHandler.AllocateCash)
			r.Get("/reconciliation", cfg.LedgerHandler.Reconcile)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(middleware.RequirePoster)
			r.Post("/reserve", cfg.BudgetHandler.ReserveForScope)
			r.Post("/{id}/reserve", cfg.BudgetHandler.Reserve)
			r.Post("/{id}/release", cfg.BudgetHandler.Release)
			r.Post("/{id}/consume", cfg.BudgetHandler.Consume)
		})

		r.Route("/approvals/{kind}/{docID}", func(r chi.Router) {
			r.Get("/", cfg.ApprovalHandler.Chain)
			r.Post("/", cfg.ApprovalHandler.Start)
			r.Post("/decisions", cfg.ApprovalHandler.Decide)
		})

		r.Get("/tasks", cfg.TaskHandler.ListMine)
	})

	return r
}
