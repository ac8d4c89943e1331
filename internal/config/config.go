package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	PaystackSecretKey     string `env:"PAYSTACK_SECRET_KEY,required" validate:"required"`
	PaystackWebhookSecret string `env:"PAYSTACK_WEBHOOK_SECRET,required" validate:"required"`
	PaystackBaseURL       string `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co" validate:"required,url"`

	JWTSecret  string `env:"JWT_SECRET,required" validate:"required,min=32"`
	AdminToken string `env:"ADMIN_TOKEN,required" validate:"required,min=16"`

	EncryptionKey string `env:"ENCRYPTION_KEY,required" validate:"required,len=32"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" validate:"omitempty,email"`
	AdminEmail   string `env:"ADMIN_EMAIL" validate:"omitempty,email"`

	ShopName    string `env:"SHOP_NAME" envDefault:"Mavie"`
	ShopURL     string `env:"SHOP_URL" envDefault:"https://mavie.shop" validate:"omitempty,url"`
	CatalogPath string `env:"CATALOG_PATH"`

	WebhookWorkers   int `env:"WEBHOOK_WORKERS" envDefault:"4" validate:"min=1,max=64"`
	WebhookQueueSize int `env:"WEBHOOK_QUEUE_SIZE" envDefault:"256" validate:"min=1"`

	SentryDSN string `env:"SENTRY_DSN"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if strings.TrimSpace(c.ResendAPIKey) != "" && strings.TrimSpace(c.EmailFrom) == "" {
		return fmt.Errorf("EMAIL_FROM is required when RESEND_API_KEY is set")
	}

	if !strings.HasPrefix(strings.TrimSpace(c.PaystackSecretKey), "sk_") {
		return fmt.Errorf("PAYSTACK_SECRET_KEY must be a Paystack secret key (sk_...)")
	}

	return nil
}

// EmailEnabled reports whether the outbound notification sink is configured.
func (c *Config) EmailEnabled() bool {
	return strings.TrimSpace(c.ResendAPIKey) != "" && strings.TrimSpace(c.EmailFrom) != ""
}
