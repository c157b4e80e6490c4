package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/config"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/database"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/tracing"
)

// Order-record store backends.
const (
	OrderStorePostgres = "postgres"
	OrderStoreMemory   = "memory"
)

// Payment providers.
const (
	ProviderMock   = "mock"
	ProviderStripe = "stripe"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Redis. An empty REDIS_ADDR keeps carts and webhook marks in memory.
	Redis                  database.RedisConfig
	CartTTLHours           int `env:"CART_TTL_HOURS" envDefault:"168"`
	CartSessionIdleMinutes int `env:"CART_SESSION_IDLE_MINUTES" envDefault:"30"`
	WebhookDedupHours      int `env:"WEBHOOK_DEDUP_HOURS" envDefault:"72"`

	// Order records
	OrderStore           string `env:"ORDER_STORE" envDefault:"memory"`
	Postgres             database.PostgresConfig
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka. No brokers disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Payment processor
	PaymentProvider     string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeEnvironment   string `env:"STRIPE_ENVIRONMENT" envDefault:"test"`
	MockCheckoutBaseURL string `env:"MOCK_CHECKOUT_BASE_URL" envDefault:"http://localhost:8080"`
	MockAutoConfirm     bool   `env:"MOCK_AUTO_CONFIRM" envDefault:"true"`

	// Checkout sessions. A CHECKOUT_API_URL sends session creation to a
	// separately deployed endpoint instead of the in-process one.
	CheckoutAPIURL                string `env:"CHECKOUT_API_URL"`
	CheckoutSessionTimeoutSeconds int    `env:"CHECKOUT_SESSION_TIMEOUT_SECONDS" envDefault:"15"`

	// Circuit breaker settings for the checkout endpoint
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Rate limiting of session-creating routes, per client IP
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// OpenTelemetry
	Tracing tracing.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg.Tracing.Environment = cfg.Environment
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours)
	}
	if c.CartSessionIdleMinutes < 1 {
		return fmt.Errorf("CART_SESSION_IDLE_MINUTES must be positive, got %d", c.CartSessionIdleMinutes)
	}

	switch c.OrderStore {
	case OrderStoreMemory:
	case OrderStorePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	default:
		return fmt.Errorf("ORDER_STORE must be %q or %q, got %q", OrderStorePostgres, OrderStoreMemory, c.OrderStore)
	}

	switch c.PaymentProvider {
	case ProviderMock:
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		}
		if c.StripeEnvironment != "test" && c.StripeEnvironment != "live" {
			return fmt.Errorf("STRIPE_ENVIRONMENT must be test or live, got %q", c.StripeEnvironment)
		}
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be %q or %q, got %q", ProviderMock, ProviderStripe, c.PaymentProvider)
	}

	if c.CheckoutAPIURL != "" {
		if _, err := url.ParseRequestURI(c.CheckoutAPIURL); err != nil {
			return fmt.Errorf("invalid CHECKOUT_API_URL %q: %w", c.CheckoutAPIURL, err)
		}
	}
	if c.CheckoutSessionTimeoutSeconds < 1 {
		return fmt.Errorf("CHECKOUT_SESSION_TIMEOUT_SECONDS must be positive, got %d", c.CheckoutSessionTimeoutSeconds)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CartTTL is how long an untouched persisted cart is kept.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// CartIdleTimeout is how long an in-memory cart session lives without use.
func (c *Config) CartIdleTimeout() time.Duration {
	return time.Duration(c.CartSessionIdleMinutes) * time.Minute
}

// WebhookDedupTTL is how long processed webhook event IDs are remembered.
func (c *Config) WebhookDedupTTL() time.Duration {
	return time.Duration(c.WebhookDedupHours) * time.Hour
}

// SessionTimeout bounds one checkout session creation.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.CheckoutSessionTimeoutSeconds) * time.Second
}
