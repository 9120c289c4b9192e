package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/cardshop/internal/auth"
	"github.com/utafrali/cardshop/internal/catalog"
	"github.com/utafrali/cardshop/internal/config"
	"github.com/utafrali/cardshop/internal/event"
	handler "github.com/utafrali/cardshop/internal/handler/http"
	redisrepo "github.com/utafrali/cardshop/internal/repository/redis"
	"github.com/utafrali/cardshop/internal/shop"
	"github.com/utafrali/cardshop/pkg/database"
	"github.com/utafrali/cardshop/pkg/health"
	"github.com/utafrali/cardshop/pkg/httpclient"
	pkgkafka "github.com/utafrali/cardshop/pkg/kafka"
	"github.com/utafrali/cardshop/pkg/middleware"
	"github.com/utafrali/cardshop/pkg/tracing"
)

const serviceName = "cardshop"

// App wires together all dependencies and runs the card shop.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	shop           *shop.Shop
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled

	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}
	healthHandler := health.NewHandler()

	if cfg.CatalogCacheEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB
		a.rdb = database.NewRedisClient(redisCfg)
		database.SetSlowCommandLogging(cfg.RedisSlowThreshold, logger)

		if err := database.Ping(ctx, a.rdb); err != nil {
			// The cache falls through to the catalog on errors, so a cold
			// Redis only degrades readiness.
			logger.Warn("redis unreachable at startup",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("connected to Redis",
				slog.String("addr", cfg.RedisAddr),
				slog.Int("db", cfg.RedisDB),
			)
		}
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return database.Ping(ctx, a.rdb)
		})
	}

	loader, catalogCheck := newLoader(cfg, a.rdb, logger)
	if catalogCheck != nil {
		healthHandler.RegisterNonCritical("catalog", catalogCheck)
	}

	var writer event.Writer = event.Discard{Logger: logger}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		writer = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(writer, logger)

	a.shop = shop.New(loader, eventProducer, logger)
	healthHandler.RegisterCritical("shop", a.shop.Check)
	authService := auth.NewService(nil, auth.NewCurrency(), cfg.LoginDelay, eventProducer, logger)

	cors := middleware.DefaultCORSConfig()
	if origins := middleware.NormalizeOrigins(cfg.CORSAllowedOrigins); len(origins) > 0 {
		cors.AllowedOrigins = origins
	}

	router := handler.NewRouter(a.shop, authService, healthHandler, cors, cfg.DebugAllowedCIDRs, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// newLoader builds the product loader chain: the built-in tier table or the
// remote catalog, optionally fronted by the Redis cache. The returned check
// reports an open circuit when the remote catalog is used.
func newLoader(cfg *config.Config, rdb *redis.Client, logger *slog.Logger) (catalog.Loader, health.Checker) {
	var (
		loader catalog.Loader
		check  health.Checker
	)

	if cfg.CatalogURL == "" {
		loader = catalog.NewStaticLoader(catalog.DefaultProducts(), cfg.CatalogMockDelay)
		logger.Info("using built-in product catalog", slog.Duration("delay", cfg.CatalogMockDelay))
	} else {
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = cfg.CatalogTimeout
		getter := catalog.NewCircuitBreakerGetter(httpCfg, logger)
		loader = catalog.NewHTTPLoader(cfg.CatalogURL, getter, logger)
		check = func(context.Context) error {
			if getter.State() == gobreaker.StateOpen {
				return errors.New("catalog circuit breaker is open")
			}
			return nil
		}
		logger.Info("using remote product catalog", slog.String("url", cfg.CatalogURL))
	}

	if rdb != nil {
		loader = catalog.NewCachedLoader(loader, redisrepo.NewProductCache(rdb), cfg.CatalogCacheTTLDuration(), logger)
	}
	return loader, check
}

// Run starts the HTTP server, requests the default product and blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// The shop serves the placeholder product until this resolves.
	a.shop.LoadProduct(ctx, a.cfg.DefaultProduct)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, pending
// product loads, tracer, Kafka producer, Redis client.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.shop.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("pending product loads did not finish", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
