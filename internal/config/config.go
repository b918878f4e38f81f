// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const EnvironmentProduction = "production"

// Config holds the shop API settings. POSTGRES_URL and JWT_SECRET are required;
// a missing value is a startup error.
type Config struct {
	DatabaseURL      string        `env:"POSTGRES_URL,required,notEmpty"`
	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	Port             string        `env:"PORT"                        envDefault:"5000"`
	Environment      string        `env:"APP_ENV"                     envDefault:"development"`
	PayPalClientID   string        `env:"PAYPAL_CLIENT_ID"`
	KafkaBrokers     []string      `env:"KAFKA_BROKERS"               envSeparator:","`
	OrderEventsTopic string        `env:"ORDER_EVENTS_TOPIC"          envDefault:"order.events"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TokenTTL         time.Duration `env:"TOKEN_TTL"                   envDefault:"720h"`
	ServiceVersion   string        `env:"SERVICE_VERSION"             envDefault:"0.1.0"`
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) TracingEnabled() bool {
	return c.OTLPEndpoint != ""
}

// Load parses the shop configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WorkerConfig holds the notification worker settings.
type WorkerConfig struct {
	KafkaBrokers     []string `env:"KAFKA_BROKERS,required,notEmpty"     envSeparator:","`
	OrderEventsTopic string   `env:"ORDER_EVENTS_TOPIC"                  envDefault:"order.events"`
	ConsumerGroup    string   `env:"CONSUMER_GROUP"                      envDefault:"notification-worker"`
	EmailServiceURL  string   `env:"EMAIL_SERVICE_URL,required,notEmpty"`
	ShopName         string   `env:"SHOP_NAME"                           envDefault:"Mey-Shop"`
	OTLPEndpoint     string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceVersion   string   `env:"SERVICE_VERSION"                     envDefault:"0.1.0"`
}

// EmailConfig holds the email service settings.
type EmailConfig struct {
	Port           string `env:"PORT"                        envDefault:"8084"`
	FromAddress    string `env:"EMAIL_FROM"                  envDefault:"no-reply@meyshop.local"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceVersion string `env:"SERVICE_VERSION"             envDefault:"0.1.0"`
}

// MigrateConfig holds the settings of the migration and seed tools.
type MigrateConfig struct {
	DatabaseURL    string `env:"POSTGRES_URL,required,notEmpty"`
	MigrationsPath string `env:"MIGRATIONS_PATH"                envDefault:"file://migrations"`
}

// Parse loads any env-tagged struct.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
