package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Service is the env-driven configuration shared by every service binary.
type Service struct {
	Port         string `envconfig:"PORT" default:"8080"`
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	OutboxInterval time.Duration `envconfig:"OUTBOX_INTERVAL" default:"500ms"`
	OutboxBatch    int           `envconfig:"OUTBOX_BATCH" default:"100"`

	ConsumerGroup   string        `envconfig:"KAFKA_GROUP_ID" default:""`
	ConsumerRetries int           `envconfig:"CONSUMER_MAX_RETRIES" default:"3"`
	ConsumerBackoff time.Duration `envconfig:"CONSUMER_BACKOFF" default:"1s"`
}

// Load reads .env when present, then the process environment.
func Load(defaultGroup string) (Service, error) {
	_ = godotenv.Load()

	var cfg Service
	if err := envconfig.Process("", &cfg); err != nil {
		return Service{}, err
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = defaultGroup
	}
	return cfg, nil
}
