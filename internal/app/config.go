package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Catalog sources.
const (
	SourceUpstream = "upstream"
	SourcePostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Prefix for product image URLs" flag:"image-base-url"`
	Catalog      CatalogConfig
	DatabaseURL  string `usage:"PostgreSQL connection URL for the catalog mirror (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CatalogConfig selects and tunes the catalog source.
type CatalogConfig struct {
	Source      string        `default:"upstream" usage:"Catalog source: upstream or postgres"`
	UpstreamURL string        `default:"https://dummyjson.com" usage:"Catalog API base URL" flag:"upstream-url"`
	Timeout     time.Duration `default:"10s" usage:"Catalog request timeout"`
	Refresh     string        `default:"@every 30m" usage:"Cron schedule for catalog refresh; empty disables"`
}

// SessionConfig controls shopper sessions.
type SessionConfig struct {
	Cookie string        `default:"storefront_session" usage:"Session cookie name"`
	TTL    time.Duration `default:"24h" usage:"Idle session lifetime"`
	Secure bool          `default:"false" usage:"Mark the session cookie Secure"`
}

// RateLimitConfig controls the per-session limiter on mutating requests.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max mutating requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case SourceUpstream:
		if c.Catalog.UpstreamURL == "" {
			return errors.New("catalog upstream URL is required for the upstream source")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres source: set STOREFRONT_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
