package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"ticketing.db"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	Khalti  KhaltiConfig
	Payment PaymentConfig

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"ticketing.events"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// Per-IP limit on the unauthenticated payment routes. 0 disables it.
	PublicRateRPS   float64 `envconfig:"PUBLIC_RATE_RPS" default:"5"`
	PublicRateBurst int     `envconfig:"PUBLIC_RATE_BURST" default:"10"`

	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
}

type KhaltiConfig struct {
	BaseURL   string        `envconfig:"KHALTI_BASE_URL" default:"https://dev.khalti.com/api/v2"`
	SecretKey string        `envconfig:"KHALTI_SECRET_KEY"`
	Timeout   time.Duration `envconfig:"KHALTI_TIMEOUT" default:"15s"`
}

type PaymentConfig struct {
	FrontendURL     string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	OrderNamePrefix string `envconfig:"ORDER_NAME_PREFIX" default:"tickets"`
	// LegacyEventEligibility lets cancelled, attended, no-show and refunded tickets start a payment.
	LegacyEventEligibility bool `envconfig:"PAYMENT_EVENT_LEGACY_ELIGIBILITY" default:"false"`
	// LookupTimeout is shorter than KHALTI_TIMEOUT: verification holds the transaction
	// row (the only connection on SQLite) while it waits.
	LookupTimeout time.Duration `envconfig:"PAYMENT_LOOKUP_TIMEOUT" default:"5s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.Khalti.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Khalti.BaseURL), "/")
	cfg.Payment.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.Payment.FrontendURL), "/")

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Khalti.Timeout <= 0 {
		return fmt.Errorf("KHALTI_TIMEOUT must be > 0")
	}
	if cfg.Payment.LookupTimeout < 0 {
		return fmt.Errorf("PAYMENT_LOOKUP_TIMEOUT must not be negative")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be > 0")
	}
	if cfg.Khalti.BaseURL == "" {
		return fmt.Errorf("KHALTI_BASE_URL must not be empty")
	}
	if cfg.Payment.FrontendURL == "" {
		return fmt.Errorf("FRONTEND_URL must not be empty")
	}

	if cfg.IsProdLike() {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if strings.TrimSpace(cfg.Khalti.SecretKey) == "" {
			return fmt.Errorf("in prod/release KHALTI_SECRET_KEY must be set")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
