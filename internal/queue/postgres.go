package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresConfig holds connection-pool tuning, grounded on the
// teacher's jobs.CockroachConfig.
type PostgresConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	// PollInterval is how often Consume re-polls while waiting out
	// blockDuration for new or freed records.
	PollInterval time.Duration
	// ClaimTTL bounds how long a Consume claim is honored before
	// another consumer in the same group may reclaim the record (a
	// crashed worker never acked it).
	ClaimTTL time.Duration
}

// DefaultPostgresConfig sets conservative connection-pool defaults,
// plus the streaming-specific poll/claim tunables.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		PollInterval:    200 * time.Millisecond,
		ClaimTTL:        30 * time.Second,
	}
}

// PostgresStore implements Store against CockroachDB/PostgreSQL,
// grounded on jobs.CockroachStore (same sql.Open/ping/
// pool-tuning shape; scanRecord follows cockroach.go's scanJob
// pattern).
type PostgresStore struct {
	db     *sql.DB
	config *PostgresConfig
}

// NewPostgresStoreFromDSN opens and pings a PostgreSQL/CockroachDB
// connection, then ensures the backing tables exist.
func NewPostgresStoreFromDSN(ctx context.Context, dsn string, config *PostgresConfig) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{db: db, config: config}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stream_records (
			seq        BIGSERIAL PRIMARY KEY,
			stream     TEXT NOT NULL,
			id         TEXT NOT NULL UNIQUE,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_stream_records_stream_seq ON stream_records (stream, seq);

		CREATE TABLE IF NOT EXISTS consumer_groups (
			stream TEXT NOT NULL,
			group_name TEXT NOT NULL,
			PRIMARY KEY (stream, group_name)
		);

		CREATE TABLE IF NOT EXISTS consumer_claims (
			stream     TEXT NOT NULL,
			group_name TEXT NOT NULL,
			record_id  TEXT NOT NULL,
			claimed_at TIMESTAMPTZ,
			acked_at   TIMESTAMPTZ,
			PRIMARY KEY (stream, group_name, record_id)
		);
	`)
	return err
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureGroup idempotently registers group on stream.
func (s *PostgresStore) EnsureGroup(ctx context.Context, stream, group string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consumer_groups (stream, group_name)
		VALUES ($1, $2)
		ON CONFLICT (stream, group_name) DO NOTHING
	`, stream, group)
	if err != nil {
		return fmt.Errorf("ensure group: %w", err)
	}
	return nil
}

// Publish appends payload to stream.
func (s *PostgresStore) Publish(ctx context.Context, stream string, payload json.RawMessage) (string, error) {
	ids, err := s.PublishBatch(ctx, stream, []json.RawMessage{payload})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PublishBatch appends payloads to stream in one transaction.
func (s *PostgresStore) PublishBatch(ctx context.Context, stream string, payloads []json.RawMessage) ([]string, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	ids := make([]string, len(payloads))
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stream_records (stream, id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, payload := range payloads {
		id := fmt.Sprintf("%s-%d-%d", stream, now.UnixNano(), i)
		if _, err := stmt.ExecContext(ctx, stream, id, []byte(payload), now); err != nil {
			return nil, fmt.Errorf("insert record: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// Consume polls stream_records for entries in stream that group has
// neither claimed (within ClaimTTL) nor acked, claiming up to maxCount
// of them. It re-polls at config.PollInterval until maxCount records
// are claimed or blockDuration elapses.
func (s *PostgresStore) Consume(ctx context.Context, stream, group string, maxCount int, blockDuration time.Duration) ([]Record, error) {
	if maxCount <= 0 {
		maxCount = 1
	}
	deadline := time.Now().Add(blockDuration)

	for {
		records, err := s.claimBatch(ctx, stream, group, maxCount)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 || blockDuration <= 0 || time.Now().After(deadline) {
			return records, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.PollInterval):
		}
	}
}

func (s *PostgresStore) claimBatch(ctx context.Context, stream, group string, maxCount int) ([]Record, error) {
	claimCutoff := time.Now().Add(-s.config.ClaimTTL)

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.payload, r.created_at
		FROM stream_records r
		LEFT JOIN consumer_claims c
			ON c.stream = r.stream AND c.group_name = $2 AND c.record_id = r.id
		WHERE r.stream = $1
			AND (c.record_id IS NULL OR (c.acked_at IS NULL AND c.claimed_at < $3))
		ORDER BY r.seq
		LIMIT $4
	`, stream, group, claimCutoff, maxCount)
	if err != nil {
		return nil, fmt.Errorf("claim query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim rows: %w", err)
	}

	now := time.Now()
	for _, rec := range records {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO consumer_claims (stream, group_name, record_id, claimed_at, acked_at)
			VALUES ($1, $2, $3, $4, NULL)
			ON CONFLICT (stream, group_name, record_id)
			DO UPDATE SET claimed_at = $4
		`, stream, group, rec.ID, now); err != nil {
			return nil, fmt.Errorf("record claim: %w", err)
		}
	}
	return records, nil
}

// Ack marks id as processed for group on stream; re-acking is a no-op.
func (s *PostgresStore) Ack(ctx context.Context, stream, group, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consumer_claims (stream, group_name, record_id, claimed_at, acked_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (stream, group_name, record_id)
		DO UPDATE SET acked_at = now()
		WHERE consumer_claims.acked_at IS NULL
	`, stream, group, id)
	if err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	return nil
}
