package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is centralized process configuration. Keep infra values here and
// pass typed config into builders; registry constants (capacity, cooldown,
// weight bounds) are fixed contracts and deliberately not configurable.
type Config struct {
	ServiceName  string   `envconfig:"SERVICE_NAME" default:"galleria"`
	HTTPPort     string   `envconfig:"HTTP_PORT" default:"8080"`
	PostgresDSN  string   `envconfig:"POSTGRES_DSN"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from environment: %w", err)
	}
	return cfg, nil
}
