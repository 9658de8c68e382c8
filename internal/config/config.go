package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all environment backed configuration for money-coach.
type Config struct {
	// HTTP Server
	HTTPPort    int `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9091"`

	// PostgreSQL
	DatabaseURL          string        `env:"DATABASE_URL,notEmpty"`
	DBPostgresqlRead1DSN string        `env:"DB_POSTGRESQL_READ1_DSN"`
	DBMaxIdleConns       int           `env:"DB_MAX_IDLE" envDefault:"5"`
	DBMaxOpenConns       int           `env:"DB_MAX_OPEN" envDefault:"20"`
	DBConnMaxLifetime    time.Duration `env:"DB_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate          bool          `env:"AUTO_MIGRATE" envDefault:"true"`

	// Bearer auth
	JWKSURL             string        `env:"JWKS_URL,notEmpty"`
	Issuer              string        `env:"ISSUER,notEmpty"`
	Audience            string        `env:"AUDIENCE"`
	RefreshJWKSInterval time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"5m"`
	AuthClockSkew       time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"60s"`

	// Identity provider
	IdentityAPIURL        string        `env:"IDENTITY_API_URL"`
	IdentityAPISecret     string        `env:"IDENTITY_API_SECRET"`
	IdentityWebhookSecret string        `env:"IDENTITY_WEBHOOK_SECRET,notEmpty"`
	IdentityTimeout       time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"5s"`

	// AI service
	AIBaseURL       string        `env:"AI_BASE_URL,notEmpty"`
	AIAPIKey        string        `env:"AI_API_KEY,notEmpty"`
	AIRoutingHeader string        `env:"AI_ROUTING_HEADER" envDefault:"X-App-Id"`
	AITimeout       time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	AITopicsFile    string        `env:"AI_TOPICS_FILE"`
	Topics          *TopicRouting `env:"-"`

	// Webhook delivery dedupe
	RedisURL         string        `env:"REDIS_URL"`
	WebhookDedupeTTL time.Duration `env:"WEBHOOK_DEDUPE_TTL" envDefault:"24h"`

	// Normalizer fallback flags
	NormalizerDefaultValid     bool `env:"NORMALIZER_DEFAULT_VALID" envDefault:"false"`
	NormalizerDefaultAmbiguous bool `env:"NORMALIZER_DEFAULT_AMBIGUOUS" envDefault:"true"`

	// Observability / Logging
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders  string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"money-coach"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads an optional .env file, parses environment variables into Config
// and performs minimal validation.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	topics, err := LoadTopicRouting(strings.TrimSpace(cfg.AITopicsFile))
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	cfg.Topics = topics

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"JWKS_URL":         c.JWKSURL,
		"AI_BASE_URL":      c.AIBaseURL,
		"IDENTITY_API_URL": c.IdentityAPIURL,
	} {
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if strings.TrimSpace(c.AIRoutingHeader) == "" {
		return errors.New("AI_ROUTING_HEADER must not be blank")
	}
	if c.AITimeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	return nil
}

// HasReadReplica reports whether a read replica DSN is configured.
func (c *Config) HasReadReplica() bool {
	return strings.TrimSpace(c.DBPostgresqlRead1DSN) != ""
}
