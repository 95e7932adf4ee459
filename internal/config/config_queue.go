package config

import "time"

// QueueConfig selects and tunes the durable-stream backend behind
// internal/queue.Manager.
type QueueConfig struct {
	// Backend is "postgres" or "sqlite".
	Backend string `yaml:"backend"`

	// DSN is the backend connection string: a Postgres/CockroachDB
	// connection string, or a filesystem path (or ":memory:") for
	// SQLite.
	DSN string `yaml:"dsn"`

	// ConsumerGroup names the consumer group QueueManager reads under.
	ConsumerGroup string `yaml:"consumer_group"`

	// MaxBatch bounds how many records one Consume call claims.
	MaxBatch int `yaml:"max_batch"`

	// BlockDuration is how long Consume waits for new records before
	// returning empty.
	BlockDuration time.Duration `yaml:"block_duration"`
}

func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "sqlite"
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = "synthesis_workers"
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
}
