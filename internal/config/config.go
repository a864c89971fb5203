// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/paywall-split/paywall-split/internal/variant"
)

type Config struct {
	Port   int    `env:"PORT"            envDefault:"8080"`
	DBPath string `env:"PAYWALL_DB_PATH" envDefault:"./paywall-split.db"`

	// APIURL is the public collector base URL. When empty the client script
	// posts back to the host it was loaded from.
	APIURL         string   `env:"PAYWALL_API_URL"`
	CookieName     string   `env:"PAYWALL_COOKIE_NAME"     envDefault:"paywall_variant"`
	Distribution   string   `env:"PAYWALL_DISTRIBUTION"    envDefault:"50,50"`
	Container      string   `env:"PAYWALL_CONTAINER"       envDefault:"paywall-container"`
	ExpirationDays int      `env:"PAYWALL_EXPIRATION_DAYS" envDefault:"30"`
	Variants       []string `env:"PAYWALL_VARIANTS"        envDefault:"a,b,c,d" envSeparator:","`

	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	SlackWebhookURL     string `env:"SLACK_WEBHOOK_URL"`
	DiscordWebhookURL   string `env:"DISCORD_WEBHOOK_URL"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	LogLevel  string `env:"PAYWALL_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"PAYWALL_LOG_FORMAT" envDefault:"json"`
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Container = strings.TrimPrefix(cfg.Container, "#")
	return cfg, nil
}

// LocalURL is where this process can reach its own collector: APIURL when
// set, otherwise localhost on Port.
func (c Config) LocalURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

func (c Config) Expiration() time.Duration {
	return time.Duration(c.ExpirationDays) * 24 * time.Hour
}

func (c Config) VariantSet() (variant.Set, error) {
	return variant.NewSet(c.Variants...)
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ExpirationDays <= 0 {
		return fmt.Errorf("expiration must be at least one day, got %d", c.ExpirationDays)
	}
	if _, err := c.VariantSet(); err != nil {
		return err
	}
	return nil
}
