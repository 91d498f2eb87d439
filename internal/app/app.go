// Package app wires configuration, adapters, services, and transport into
// a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pezware/mirubato-sub004/internal/adapter/postgres"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/deadletter"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/entry"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/review"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/seedqueue"
	"github.com/pezware/mirubato-sub004/internal/adapter/postgres/tokenledger"
	"github.com/pezware/mirubato-sub004/internal/adapter/provider/claude"
	redisadapter "github.com/pezware/mirubato-sub004/internal/adapter/redis"
	"github.com/pezware/mirubato-sub004/internal/config"
	"github.com/pezware/mirubato-sub004/internal/service/seeding"
	"github.com/pezware/mirubato-sub004/internal/transport/middleware"
	"github.com/pezware/mirubato-sub004/internal/transport/rest"
)

// maxTrackedRuns bounds the in-memory async run registry.
const maxTrackedRuns = 100

// App holds the wired application. The service fields are exported so
// one-shot commands can reuse the wiring without starting the server.
type App struct {
	Config      *config.Config
	Log         *slog.Logger
	Pool        *pgxpool.Pool
	Budget      *seeding.BudgetManager
	Processor   *seeding.Processor
	Recovery    *seeding.Recovery
	Initializer *seeding.Initializer
	Reviews     *seeding.ReviewService
	Runs        *seeding.Runs
	Registry    *prometheus.Registry

	redis *redisadapter.Client
}

// New loads configuration, runs migrations when enabled, and wires
// adapters and services. Call Close when done.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var (
		redisClient *redisadapter.Client
		cache       seeding.EntryCache
	)
	if cfg.Redis.URL != "" {
		redisClient, err = redisadapter.NewClient(cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		cache = redisadapter.NewEntryCache(redisClient, cfg.Redis.CacheTTL)
	} else {
		logger.Info("redis disabled, entry existence checks go to postgres")
	}

	tx := postgres.NewTxManager(pool)
	queueRepo := seedqueue.New(pool)
	ledgerRepo := tokenledger.New(pool)
	entryRepo := entry.New(pool)
	reviewRepo := review.New(pool)
	dlqRepo := deadletter.New(pool)

	gen := claude.New(cfg.Generator, logger)

	registry := prometheus.NewRegistry()
	metrics := seeding.NewMetrics(registry)

	budget := seeding.NewBudgetManager(logger, ledgerRepo, cfg.Seed)
	reviews := seeding.NewReviewService(logger, reviewRepo, entryRepo, cache, tx)
	processor := seeding.NewProcessor(logger, queueRepo, entryRepo, cache, gen, budget, reviews, metrics, cfg.Seed)
	recovery := seeding.NewRecovery(logger, queueRepo, dlqRepo, tx, metrics, cfg.Seed)

	return &App{
		Config:      cfg,
		Log:         logger,
		Pool:        pool,
		Budget:      budget,
		Processor:   processor,
		Recovery:    recovery,
		Initializer: seeding.NewInitializer(logger, queueRepo),
		Reviews:     reviews,
		Runs:        seeding.NewRuns(maxTrackedRuns),
		Registry:    registry,
		redis:       redisClient,
	}, nil
}

// Close releases the application's connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("close redis", slog.String("error", err.Error()))
		}
	}
	a.Pool.Close()
}

// Serve starts the cron triggers and the HTTP server and blocks until ctx
// is canceled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	health := rest.NewHealthHandler(a.Pool, BuildVersion())
	admin := rest.NewSeedAdminHandler(a.Processor, a.Initializer, a.Budget, a.Recovery, a.Reviews, a.Runs, a.Config.Seed, a.Log)
	mux := rest.NewRouter(health, admin, a.Registry)

	handler := middleware.Chain(
		middleware.RequestID,
		middleware.Reviewer,
		middleware.Logger(a.Log),
		middleware.Recovery(a.Log),
	)(mux)

	sched := NewScheduler(a.Log)
	err := sched.Add(a.Config.Seed.ProcessSchedule, "process_batch", func(ctx context.Context) {
		if _, err := a.Processor.RunBatch(ctx, 0, false); err != nil {
			a.Log.Error("scheduled batch run failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	err = sched.Add(a.Config.Seed.RecoverSchedule, "recover_failed", func(ctx context.Context) {
		if _, err := a.Recovery.RecoverFailedItems(ctx, 0); err != nil {
			a.Log.Error("scheduled recovery failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Run is the service entry point: wire the application and serve until
// the context is canceled.
func Run(ctx context.Context) error {
	a, err := New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}
