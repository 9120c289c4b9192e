package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/cardshop/pkg/config"
)

// Config holds all configuration for the card shop service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SHOP_HTTP_PORT" envDefault:"8010"`

	// Product loaded when the service starts.
	DefaultProduct string `env:"SHOP_DEFAULT_PRODUCT" envDefault:"standard"`

	// Catalog. An empty URL selects the built-in tier table.
	CatalogURL       string        `env:"CATALOG_URL" envDefault:""`
	CatalogMockDelay time.Duration `env:"CATALOG_MOCK_DELAY" envDefault:"3s"`
	CatalogTimeout   time.Duration `env:"CATALOG_TIMEOUT" envDefault:"5s"`

	// Catalog cache (Redis)
	CatalogCacheEnabled bool   `env:"CATALOG_CACHE_ENABLED" envDefault:"false"`
	CatalogCacheTTL     int    `env:"CATALOG_CACHE_TTL_MINUTES" envDefault:"60"`
	RedisAddr           string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass           string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB             int    `env:"REDIS_DB" envDefault:"0"`

	// Redis commands at or above this duration are logged. Zero disables.
	RedisSlowThreshold time.Duration `env:"REDIS_SLOW_THRESHOLD" envDefault:"100ms"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Login
	LoginDelay time.Duration `env:"LOGIN_DELAY" envDefault:"30ms"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Debug endpoints (/debug/pprof, /debug/shop/graph)
	DebugAllowedCIDRs []string `env:"DEBUG_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return load(pkgconfig.Load)
}

// LoadFrom reads configuration from environ only, ignoring the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(func(cfg any) error { return pkgconfig.LoadFrom(cfg, environ) })
}

func load(parse func(any) error) (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, fmt.Errorf("load shop config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CatalogCacheTTLDuration returns the cache TTL as a duration.
func (c *Config) CatalogCacheTTLDuration() time.Duration {
	return time.Duration(c.CatalogCacheTTL) * time.Minute
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.DefaultProduct == "" {
		return fmt.Errorf("SHOP_DEFAULT_PRODUCT is required")
	}
	if c.CatalogMockDelay < 0 {
		return fmt.Errorf("CATALOG_MOCK_DELAY must not be negative, got %s", c.CatalogMockDelay)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive, got %s", c.CatalogTimeout)
	}
	if c.CatalogCacheEnabled && c.CatalogCacheTTL < 1 {
		return fmt.Errorf("CATALOG_CACHE_TTL_MINUTES must be at least 1, got %d", c.CatalogCacheTTL)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.RedisSlowThreshold < 0 {
		return fmt.Errorf("REDIS_SLOW_THRESHOLD must not be negative, got %s", c.RedisSlowThreshold)
	}
	if c.LoginDelay < 0 {
		return fmt.Errorf("LOGIN_DELAY must not be negative, got %s", c.LoginDelay)
	}
	if c.OTELSampleRate < 0.0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
