// Package app wires the storefront service together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/persistence"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/breaker"
	"github.com/utafrali/storefront/internal/storage/memory"
	pgstore "github.com/utafrali/storefront/internal/storage/postgres"
	"github.com/utafrali/storefront/internal/storage/postgres/migrations"
	redisstore "github.com/utafrali/storefront/internal/storage/redis"
	"github.com/utafrali/storefront/internal/storefront"
	"github.com/utafrali/storefront/internal/timer"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const slowQueryThreshold = 200 * time.Millisecond

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Manager

	rdb       *redis.Client
	pool      *pgxpool.Pool
	producer  *pkgkafka.Producer
	forwarder *event.Forwarder
	shutdown  tracing.ShutdownFunc

	httpServer *http.Server
}

// initTracing is replaced in tests.
var initTracing = tracing.Init

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdown, err := initTracing(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampling,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdown = shutdown

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		a.shutdownTracing(ctx)
		return nil, err
	}
	logger.Info("catalog loaded", slog.Int("products", cat.Len()), slog.String("path", cfg.CatalogPath))

	kv, err := a.openStorage(ctx)
	if err != nil {
		a.closeStores()
		a.shutdownTracing(ctx)
		return nil, err
	}
	store := persistence.New(kv, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("storage", store.Ping)

	var onCreate func(*storefront.State)
	if cfg.KafkaEnabled {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		a.producer = pkgkafka.NewProducer(kafkaCfg, logger)
		a.forwarder = event.NewForwarder(event.NewProducer(a.producer, logger), event.DefaultBufferSize, logger)
		onCreate = func(s *storefront.State) { a.forwarder.Attach(s) }
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	timings := storefront.DefaultTimings()
	timings.CheckoutDelay = cfg.CheckoutDelay
	timings.SearchDebounce = cfg.SearchDebounce

	a.sessions = session.NewManager(session.Config{
		Catalog:     cat,
		Store:       store,
		KeyPrefix:   cfg.StorageKeyPrefix,
		Scheduler:   timer.NewReal(),
		Timings:     timings,
		Logger:      logger,
		IdleTimeout: cfg.SessionIdleTimeout,
		OnCreate:    onCreate,
	})

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(handler.RouterConfig{
		Catalog:  cat,
		Sessions: a.sessions,
		Health:   healthHandler,
		Logger:   logger,
		CORS:     cors,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Seed()
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// openStorage connects the configured backend. Remote backends sit behind a
// circuit breaker.
func (a *App) openStorage(ctx context.Context) (storage.KV, error) {
	switch a.cfg.StorageBackend {
	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPass,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
		return breaker.New(redisstore.New(rdb, a.cfg.StorageTTL()), breaker.DefaultConfig("redis"), a.logger), nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(a.cfg.PostgresDSN), a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, handler.ServiceName); err != nil {
			a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		database.SetSlowQueryLogging(slowQueryThreshold, a.logger)
		a.logger.Info("connected to PostgreSQL")
		return breaker.New(pgstore.New(pool), breaker.DefaultConfig("postgres"), a.logger), nil

	default:
		return memory.New(), nil
	}
}

// Handler returns the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if a.forwarder != nil {
		a.forwarder.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. Sessions close before the
// forwarder so pending checkout timers cannot publish into a closed queue.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.sessions.Close()

	if a.forwarder != nil {
		a.forwarder.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.closeStores()

	a.shutdownTracing(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeStores() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

func (a *App) shutdownTracing(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
}
