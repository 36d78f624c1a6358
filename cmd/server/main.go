package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/procureledger/internal/adapter/http"
	"github.com/iho/procureledger/internal/adapter/http/handler"
	"github.com/iho/procureledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/procureledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/procureledger/internal/adapter/repository/redis"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/infrastructure/auth"
	"github.com/iho/procureledger/internal/infrastructure/config"
	"github.com/iho/procureledger/internal/infrastructure/eventpublisher"
	"github.com/iho/procureledger/internal/infrastructure/logger"
	"github.com/iho/procureledger/internal/infrastructure/metrics"
	"github.com/iho/procureledger/internal/infrastructure/postgres"
	"github.com/iho/procureledger/internal/infrastructure/redis"
	"github.com/iho/procureledger/internal/usecase"
)

const serviceName = "procureledger"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: serviceName, Caller: cfg.LogCaller})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := postgres.Open(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
		StartupWait:    cfg.DatabaseStartupWait,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	asynqOpt, err := redis.AsynqConnOpt(cfg.RedisURL)
	if err != nil {
		return err
	}
	asynqClient := asynq.NewClient(asynqOpt)
	defer asynqClient.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	verifier, anonymous, err := authSetup(cfg)
	if err != nil {
		return err
	}

	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	app := buildApp(cfg, pool, redisClient, outboxRepo, m, log)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:    app.account,
		LedgerHandler:     app.ledger,
		BudgetHandler:     app.budget,
		ApprovalHandler:   app.approval,
		TaskHandler:       app.task,
		HealthHandler:     app.health,
		IdempotencyStore:  redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:    cfg.IdempotencyTTL,
		TokenVerifier:     verifier,
		AnonymousUser:     anonymous,
		Metrics:           m,
		Gatherer:          reg,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log,
	})
	server := newHTTPServer(cfg, router)

	relay := eventpublisher.NewRelay(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher: eventpublisher.FanOut{
			eventpublisher.NewRedisPublisher(redisClient, cfg.EventChannel),
			eventpublisher.NewTaskNotifier(asynqClient, cfg.TaskQueue),
			eventpublisher.NewLogPublisher(log),
		},
		Observer:  m,
		Logger:    log,
		BatchSize: cfg.OutboxBatchSize,
		Interval:  cfg.OutboxPollInterval,
		Retention: cfg.OutboxRetention,
	})
	worker := eventpublisher.NewWorker(asynqOpt, cfg.TaskQueue, eventpublisher.NewLogNotifier(log), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return ignoreCanceled(relay.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(worker.Run(gctx)) })

	return g.Wait()
}

type app struct {
	account  *handler.AccountHandler
	ledger   *handler.LedgerHandler
	budget   *handler.BudgetHandler
	approval *handler.ApprovalHandler
	task     *handler.TaskHandler
	health   *handler.HealthHandler
}

func buildApp(
	cfg *config.Config,
	pool *pgxpool.Pool,
	redisClient goredis.UniversalClient,
	outboxRepo *postgresRepo.OutboxRepository,
	m *metrics.Metrics,
	log zerolog.Logger,
) app {
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	processes := redisRepo.NewProcessCache(
		postgresRepo.NewProcessRepository(pool),
		redisRepo.NewCache(redisClient, redisRepo.DefaultCacheNamespace),
		cfg.ProcessCacheTTL,
		log,
	)

	deps := usecase.Deps{
		TxManager: postgresRepo.NewTxManager(pool),
		Retrier:   postgresRepo.NewRetrier(retrierConfig(cfg), log),
		Outbox:    outboxRepo,
		Audit:     postgresRepo.NewAuditRepository(pool),
		IDGen:     postgresRepo.NewULIDGenerator(),
		Clock:     usecase.SystemClock{},
		Identity:  auth.ContextIdentity{},
		Recorder:  m,
		Logger:    log,
	}

	accountUC := usecase.NewAccountUseCase(deps, accountRepo, postgresRepo.NewAccountCodeRepository(pool))
	ledgerUC := usecase.NewLedgerUseCase(deps, accountRepo, entryRepo, postgresRepo.NewInvoiceRepository(pool), cfg.LedgerAccounts())
	reconcileUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, log)
	commitments := postgresRepo.NewCommitmentRepository()
	budgetUC := usecase.NewBudgetUseCase(deps, postgresRepo.NewRequestBudgetRepository(pool), postgresRepo.NewBudgetRepository(pool), commitments)
	tasks := usecase.NewTaskDispatcher(deps, postgresRepo.NewTaskRepository(pool))
	approvalUC := usecase.NewApprovalUseCase(
		deps,
		postgresRepo.NewApprovalRepository(pool),
		processes,
		postgresRepo.NewApproverResolver(pool),
		commitments,
		tasks,
		budgetUC,
		cfg.ProcessTitles(),
	)

	return app{
		account:  handler.NewAccountHandler(accountUC, ledgerUC),
		ledger:   handler.NewLedgerHandler(ledgerUC, reconcileUC),
		budget:   handler.NewBudgetHandler(budgetUC),
		approval: handler.NewApprovalHandler(approvalUC),
		task:     handler.NewTaskHandler(tasks),
		health: handler.NewHealthHandler(
			handler.HealthCheck{Name: "postgres", Check: pool.Ping},
			handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redis.Ping(ctx, redisClient) }},
		),
	}
}

// authSetup returns the bearer token verifier, or the user every request acts
// as when authentication is disabled.
func authSetup(cfg *config.Config) (middleware.TokenVerifier, *domain.User, error) {
	if !cfg.AuthEnabled {
		return nil, &domain.User{ID: "system", Name: "System", Role: domain.RoleAdmin}, nil
	}
	if cfg.JWTSecret == "" {
		return nil, nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil, nil
}

func retrierConfig(cfg *config.Config) postgresRepo.RetrierConfig {
	return postgresRepo.RetrierConfig{
		MaxRetries:      int(cfg.RetryMaxAttempts),
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		MaxElapsedTime:  cfg.RetryMaxElapsedTime,
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
