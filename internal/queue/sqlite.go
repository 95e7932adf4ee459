package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig mirrors PostgresConfig's streaming tunables for the
// local/test backend.
type SQLiteConfig struct {
	PollInterval time.Duration
	ClaimTTL     time.Duration
}

// DefaultSQLiteConfig returns sensible local-dev defaults.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		PollInterval: 50 * time.Millisecond,
		ClaimTTL:     30 * time.Second,
	}
}

// SQLiteStore implements Store against a local SQLite file (or
// :memory:), for single-process development and tests where a
// PostgreSQL/CockroachDB instance isn't available. Tables and claim
// semantics mirror PostgresStore; the SQL driver, placeholder syntax,
// column types and upsert syntax differ.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
}

// NewSQLiteStore opens path (use ":memory:" for ephemeral use) and
// ensures the backing tables exist.
func NewSQLiteStore(ctx context.Context, path string, config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite only safely supports one writer at a time; this backend
	// targets single-process local/test use, not concurrent producers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, config: config}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stream_records (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			stream     TEXT NOT NULL,
			id         TEXT NOT NULL UNIQUE,
			payload    TEXT NOT NULL,
			created_at DATETIME NOT NULL
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
			claimed_at DATETIME,
			acked_at   DATETIME,
			PRIMARY KEY (stream, group_name, record_id)
		);
	`)
	return err
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureGroup idempotently registers group on stream.
func (s *SQLiteStore) EnsureGroup(ctx context.Context, stream, group string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consumer_groups (stream, group_name)
		VALUES (?, ?)
		ON CONFLICT (stream, group_name) DO NOTHING
	`, stream, group)
	if err != nil {
		return fmt.Errorf("ensure group: %w", err)
	}
	return nil
}

// Publish appends payload to stream.
func (s *SQLiteStore) Publish(ctx context.Context, stream string, payload json.RawMessage) (string, error) {
	ids, err := s.PublishBatch(ctx, stream, []json.RawMessage{payload})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PublishBatch appends payloads to stream in one transaction.
func (s *SQLiteStore) PublishBatch(ctx context.Context, stream string, payloads []json.RawMessage) ([]string, error) {
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
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, payload := range payloads {
		id := fmt.Sprintf("%s-%d-%d", stream, now.UnixNano(), i)
		if _, err := stmt.ExecContext(ctx, stream, id, string(payload), now); err != nil {
			return nil, fmt.Errorf("insert record: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// Consume polls stream_records for stream entries group hasn't
// claimed (or whose claim expired) or acked, claiming up to maxCount,
// re-polling until blockDuration elapses.
func (s *SQLiteStore) Consume(ctx context.Context, stream, group string, maxCount int, blockDuration time.Duration) ([]Record, error) {
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

func (s *SQLiteStore) claimBatch(ctx context.Context, stream, group string, maxCount int) ([]Record, error) {
	claimCutoff := time.Now().Add(-s.config.ClaimTTL)

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.payload, r.created_at
		FROM stream_records r
		LEFT JOIN consumer_claims c
			ON c.stream = r.stream AND c.group_name = ? AND c.record_id = r.id
		WHERE r.stream = ?
			AND (c.record_id IS NULL OR (c.acked_at IS NULL AND c.claimed_at < ?))
		ORDER BY r.seq
		LIMIT ?
	`, group, stream, claimCutoff, maxCount)
	if err != nil {
		return nil, fmt.Errorf("claim query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var payload string
		var createdAt time.Time
		if err := rows.Scan(&rec.ID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Payload = json.RawMessage(payload)
		rec.CreatedAt = createdAt
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim rows: %w", err)
	}

	now := time.Now()
	for _, rec := range records {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO consumer_claims (stream, group_name, record_id, claimed_at, acked_at)
			VALUES (?, ?, ?, ?, NULL)
			ON CONFLICT (stream, group_name, record_id)
			DO UPDATE SET claimed_at = excluded.claimed_at
		`, stream, group, rec.ID, now); err != nil {
			return nil, fmt.Errorf("record claim: %w", err)
		}
	}
	return records, nil
}

// Ack marks id as processed for group on stream; re-acking is a no-op.
func (s *SQLiteStore) Ack(ctx context.Context, stream, group, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consumer_claims (stream, group_name, record_id, claimed_at, acked_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (stream, group_name, record_id)
		DO UPDATE SET acked_at = CURRENT_TIMESTAMP
		WHERE consumer_claims.acked_at IS NULL
	`, stream, group, id)
	if err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	return nil
}
