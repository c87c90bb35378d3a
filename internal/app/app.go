package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopfront/reviews/internal/config"
	"github.com/shopfront/reviews/internal/event"
	handlerhttp "github.com/shopfront/reviews/internal/handler/http"
	"github.com/shopfront/reviews/internal/identity"
	"github.com/shopfront/reviews/internal/service"
	"github.com/shopfront/reviews/internal/shopify"
	"github.com/shopfront/reviews/internal/store/catalog"
	"github.com/shopfront/reviews/internal/store/metafield"
	"github.com/shopfront/reviews/internal/store/productcache"
	"github.com/shopfront/reviews/pkg/health"
	pkgkafka "github.com/shopfront/reviews/pkg/kafka"
	"github.com/shopfront/reviews/pkg/tracing"
)

// App wires together all dependencies and runs the reviews service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	redisClient    *redis.Client
	kafkaProducer  *pkgkafka.Producer
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance: Shopify clients, the
// metafield review store, the cached catalog, Kafka producer, HTTP
// router and health checks.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Shopify clients. The admin path carries the review writes; the
	// storefront path serves catalog reads.
	adminClient := shopify.NewAdminClient(cfg.AdminGraphQLURL(), cfg.ShopifyAdminAccessToken, logger)
	storefrontClient := shopify.NewStorefrontClient(cfg.StorefrontGraphQLURL(), cfg.ShopifyStorefrontToken, logger)

	reviewStore := metafield.New(adminClient, logger)

	// Catalog behind a short-TTL Redis cache.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	catalogClient := catalog.New(storefrontClient, logger)
	cachedCatalog := productcache.New(catalogClient, redisClient, cfg.CatalogTTL, logger)

	// Kafka producer for review domain events.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	events := event.NewProducer(kafkaProducer, logger)

	// Session identity (static provider seeded from config).
	idp := identity.NewStatic(cfg.SessionUserID, cfg.SessionUserName, cfg.SessionUserEmail)

	reviewService := service.NewReviewService(reviewStore, events, logger)
	productService := service.NewProductService(cachedCatalog, reviewStore, logger)

	// Health checks. Redis is critical: without the cache every product
	// page hits the platform directly and the rate budget dies. Kafka is
	// not: events are best-effort.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return cachedCatalog.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	healthHandler.RegisterNonCritical("shopify", func(ctx context.Context) error {
		var out struct {
			Shop struct {
				Name string `json:"name"`
			} `json:"shop"`
		}
		return storefrontClient.Query(ctx, "query { shop { name } }", nil, &out)
	})

	router := handlerhttp.NewRouter(cfg, handlerhttp.RouterDeps{
		Reviews:  handlerhttp.NewReviewHandler(reviewService, idp, logger),
		Products: handlerhttp.NewProductHandler(productService, logger),
		Health:   healthHandler,
		Identity: idp,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		redisClient:    redisClient,
		kafkaProducer:  kafkaProducer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application in dependency order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka producer (flush buffered events from drained requests)
// 3. Redis client
// 4. Tracer (flush pending spans)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.kafkaProducer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
