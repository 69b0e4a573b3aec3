package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config описывает настройки запуска сервиса, читаемые из окружения.
type Config struct {
	// HTTPAddr — адрес API (webhook'и, триггер выплат, леджер).
	HTTPAddr string `env:"SETTLEMENT_HTTP_ADDR" envDefault:":8080"`
	// MetricsAddr — адрес служебного сервера (/metrics, /healthz, /livez).
	MetricsAddr string `env:"SETTLEMENT_METRICS_ADDR" envDefault:":9090"`

	// PostgresDSN включает PostgreSQL-хранилище; пустое значение означает
	// in-memory режим для разработки и тестов.
	PostgresDSN         string `env:"DATABASE_URL"`
	PostgresAutoMigrate bool   `env:"SETTLEMENT_AUTO_MIGRATE" envDefault:"true"`

	// KafkaBrokers включает публикацию событий; пусто — события не публикуются.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// WebhookSecret — pre-shared секрет endpoint'а платёжного провайдера.
	// Без него webhook-события не принимаются.
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	// PayoutTriggerToken защищает ручной запуск выплат; пусто — без проверки.
	PayoutTriggerToken string `env:"PAYOUT_TRIGGER_TOKEN"`

	PayoutInterval   time.Duration `env:"SETTLEMENT_PAYOUT_INTERVAL" envDefault:"1h"`
	SettingsCacheTTL time.Duration `env:"SETTLEMENT_SETTINGS_CACHE_TTL" envDefault:"5m"`
}

// DefaultConfig возвращает конфигурацию по умолчанию (in-memory, без Kafka).
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		PostgresAutoMigrate: true,
		PayoutInterval:      time.Hour,
		SettingsCacheTTL:    5 * time.Minute,
	}
}

// LoadConfig читает конфигурацию из переменных окружения.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет согласованность конфигурации перед запуском.
func (c Config) Validate() error {
	if c.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.PayoutInterval <= 0 {
		return fmt.Errorf("payout interval must be positive")
	}
	return nil
}
