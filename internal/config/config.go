package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8001"`

	// Commerce platform (Shopify)
	ShopifyStoreDomain          string `env:"SHOPIFY_STORE_DOMAIN"`
	ShopifyAdminAccessToken     string `env:"SHOPIFY_ADMIN_ACCESS_TOKEN"`
	ShopifyStorefrontToken      string `env:"SHOPIFY_STOREFRONT_ACCESS_TOKEN"`
	ShopifyAdminAPIVersion      string `env:"SHOPIFY_ADMIN_API_VERSION" envDefault:"2025-01"`
	ShopifyStorefrontAPIVersion string `env:"SHOPIFY_STOREFRONT_API_VERSION" envDefault:"2025-10"`

	// Redis (catalog read cache)
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CatalogTTL    time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"60s"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Rate limiting on review mutations (per client IP)
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Session identity (static provider; empty name means anonymous)
	SessionUserID    string `env:"SESSION_USER_ID" envDefault:""`
	SessionUserName  string `env:"SESSION_USER_NAME" envDefault:""`
	SessionUserEmail string `env:"SESSION_USER_EMAIL" envDefault:""`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.ShopifyStoreDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_STORE_DOMAIN is required")
	}
	if cfg.ShopifyAdminAccessToken == "" {
		return nil, fmt.Errorf("SHOPIFY_ADMIN_ACCESS_TOKEN is required")
	}
	if cfg.ShopifyStorefrontToken == "" {
		return nil, fmt.Errorf("SHOPIFY_STOREFRONT_ACCESS_TOKEN is required")
	}
	if cfg.CatalogTTL <= 0 {
		return nil, fmt.Errorf("CATALOG_CACHE_TTL must be positive, got %s", cfg.CatalogTTL)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.OTELSampleRate < 0 || cfg.OTELSampleRate > 1.0 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", cfg.OTELSampleRate)
	}
	return cfg, nil
}

// AdminGraphQLURL returns the Admin GraphQL endpoint for the configured store.
func (c *Config) AdminGraphQLURL() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.ShopifyStoreDomain, c.ShopifyAdminAPIVersion)
}

// StorefrontGraphQLURL returns the Storefront GraphQL endpoint for the configured store.
func (c *Config) StorefrontGraphQLURL() string {
	return fmt.Sprintf("https://%s/api/%s/graphql.json", c.ShopifyStoreDomain, c.ShopifyStorefrontAPIVersion)
}
