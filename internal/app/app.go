package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/database"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/health"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httpclient"
	pkgkafka "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/kafka"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/middleware"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/tracing"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/catalog"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/checkoutclient"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/config"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/event"
	handler "github.com/QDHolding/Uptown-Beauty-EcomStore/internal/handler/http"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	mockprovider "github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider/mock"
	stripeprovider "github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider/stripe"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository/memory"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository/postgres"
	redisrepo "github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository/redis"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	carts          *service.CartService
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis, Postgres and Kafka are optional: without them carts and webhook
// marks live in memory, order records live in memory and events are not
// published.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	// Cart persistence and webhook de-duplication.
	cartRepo, guard := a.initRedis(ctx, healthHandler)

	// Order records.
	orders, err := a.initOrderStore(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	// Domain events.
	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		// Cart observers publish while holding the cart lock.
		kafkaCfg.Async = true
		a.producer = pkgkafka.NewProducer(kafkaCfg, logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("events", func(ctx context.Context) error {
			return a.producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, domain events disabled")
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Payment processor.
	payments, verifier, err := newPaymentProvider(cfg, logger)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	// Build the dependency graph.
	cat := catalog.Default()
	a.carts = service.NewCartService(cartRepo, cat, eventProducer, logger, cfg.CartIdleTimeout())
	sessionService := service.NewSessionService(payments, orders, eventProducer, logger)

	var creator service.SessionCreator = sessionService
	if cfg.CheckoutAPIURL != "" {
		creator = a.newCheckoutClient()
	}

	services := handler.Services{
		Catalog:   service.NewCatalogService(cat, logger),
		Cart:      a.carts,
		Checkout:  service.NewCheckoutService(a.carts, creator, orders, payments, logger, cfg.SessionTimeout()),
		Sessions:  sessionService,
		Webhooks:  service.NewWebhookService(verifier, guard, orders, eventProducer, logger),
		Marketing: service.NewMarketingService(cat, payments, orders, logger, cfg.SessionTimeout()),
	}

	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = middleware.ParseOrigins(cfg.CORSAllowedOrigins)
	cors.AllowCredentials = true
	cors.Environment = cfg.Environment

	// HTTP router.
	routerCfg := handler.RouterConfig{
		ServiceName: serviceName,
		CORS:        cors,
		CartCookie: handler.CartCookieConfig{
			MaxAge: int(cfg.CartTTL().Seconds()),
			Secure: !cfg.IsDevelopment(),
		},
		RateLimiter: a.limiter,
	}
	if mp, ok := payments.(*mockprovider.Provider); ok {
		routerCfg.HostedPage = mp
	}
	router := handler.NewRouter(services, routerCfg, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initRedis connects to Redis when configured. An unreachable Redis is not
// fatal: carts then live in memory only.
func (a *App) initRedis(ctx context.Context, h *health.Handler) (repository.CartRepository, repository.IdempotencyStore) {
	cfg := a.cfg
	if !cfg.Redis.Enabled() {
		a.logger.Info("no redis configured, carts are kept in memory")
		return memory.NewCartRepository(), memory.NewIdempotencyStore(cfg.WebhookDedupTTL())
	}

	client, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		a.logger.Warn("redis unavailable, carts are kept in memory",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()),
		)
		return memory.NewCartRepository(), memory.NewIdempotencyStore(cfg.WebhookDedupTTL())
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr))

	h.RegisterNonCritical("cart_store", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return redisrepo.NewCartRepository(client, cfg.CartTTL()),
		redisrepo.NewIdempotencyStore(client, cfg.WebhookDedupTTL(), serviceName)
}

// initOrderStore opens the Postgres order-record store and applies its
// migrations, or returns the in-memory store.
func (a *App) initOrderStore(ctx context.Context, h *health.Handler) (repository.OrderRepository, error) {
	cfg := a.cfg
	if cfg.OrderStore != config.OrderStorePostgres {
		a.logger.Info("order records are kept in memory")
		return memory.NewOrderRepository(), nil
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Postgres.Host),
		slog.Int("port", cfg.Postgres.Port),
		slog.String("database", cfg.Postgres.DBName),
	)
	if err := database.RegisterPoolMetrics(pool, serviceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	h.RegisterCritical("order_store", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return postgres.NewOrderRepository(pool), nil
}

// newPaymentProvider returns the configured processor and, when a signing
// secret is set, its webhook verifier.
func newPaymentProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, provider.WebhookVerifier, error) {
	var verifier provider.WebhookVerifier
	if cfg.StripeWebhookSecret != "" {
		v, err := stripeprovider.NewWebhookVerifier(cfg.StripeWebhookSecret)
		if err != nil {
			return nil, nil, fmt.Errorf("init webhook verifier: %w", err)
		}
		verifier = v
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhooks will be rejected")
	}

	switch cfg.PaymentProvider {
	case config.ProviderStripe:
		p, err := stripeprovider.NewProvider(stripeprovider.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Environment:   cfg.StripeEnvironment,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init stripe provider: %w", err)
		}
		logger.Info("payment provider initialized",
			slog.String("provider", p.Name()),
			slog.String("environment", p.Environment()),
		)
		return p, verifier, nil
	default:
		logger.Warn("using mock payment provider",
			slog.Bool("auto_confirm", cfg.MockAutoConfirm),
		)
		return mockprovider.NewProvider(cfg.MockCheckoutBaseURL, cfg.MockAutoConfirm), verifier, nil
	}
}

// newCheckoutClient builds the client of the remote session endpoint. It
// never retries: a retried POST could open a second session.
func (a *App) newCheckoutClient() *checkoutclient.Client {
	cfg := a.cfg
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.SessionTimeout(),
		MaxRetries:      0,
		MaxConnsPerHost: 20,
		UserAgent:       "uptown-storefront",
	})

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "checkout-sessions",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, a.logger)
	a.logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.String("url", cfg.CheckoutAPIURL),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	return checkoutclient.New(cbClient, cfg.CheckoutAPIURL, a.logger)
}

// Run starts the HTTP server and the background janitors, and blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.carts.Run(bgCtx)
	}()
	if a.limiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.limiter.Run(bgCtx)
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopBackground()
	wg.Wait()

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Cart sessions
// 3. Tracer (flush pending spans from drained requests)
// 4. Kafka producer, Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (10s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Detach cart observers so nothing publishes after the producer closes.
	a.carts.Close()

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close the backing stores.
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources closes the Kafka producer, Redis client and Postgres pool
// that were opened.
func (a *App) closeResources() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
