// Package queue implements QueueManager: a uniform durable-stream layer
// over five append-only streams (corpus-queue, atomic-tasks,
// extended-tasks, verification-queue, verification-results), each
// shared by every pipeline worker under a single consumer group named
// synthesis_workers.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Stream names, fixed across every producer and consumer.
const (
	StreamCorpus              = "corpus-queue"
	StreamAtomicTasks         = "atomic-tasks"
	StreamExtendedTasks       = "extended-tasks"
	StreamVerificationQueue   = "verification-queue"
	StreamVerificationResults = "verification-results"
)

// DefaultConsumerGroup is the single consumer group every worker joins.
const DefaultConsumerGroup = "synthesis_workers"

// Record is one published message: an opaque, caller-defined JSON
// payload plus the stream-assigned id once durable.
type Record struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is the durable-stream backend QueueManager delegates to.
// Implementations: postgres (production) and sqlite (local/test).
type Store interface {
	// EnsureGroup idempotently creates consumer group on stream;
	// already-exists is not an error.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Publish appends payload to stream and returns its assigned id.
	Publish(ctx context.Context, stream string, payload json.RawMessage) (string, error)

	// PublishBatch appends multiple payloads in one round trip,
	// returning their assigned ids in order.
	PublishBatch(ctx context.Context, stream string, payloads []json.RawMessage) ([]string, error)

	// Consume claims up to maxCount unacked records for group on
	// stream, blocking up to blockDuration if none are immediately
	// available. Returns fewer than maxCount (possibly zero) records
	// without error when the block duration elapses.
	Consume(ctx context.Context, stream, group string, maxCount int, blockDuration time.Duration) ([]Record, error)

	// Ack marks id as processed for group on stream. Acking an
	// already-acked id is a no-op.
	Ack(ctx context.Context, stream, group, id string) error

	Close() error
}

// Manager is the QueueManager façade every pipeline component consumes;
// it narrows Store down to the five named streams and fixes the
// consumer group to DefaultConsumerGroup so callers never need to name
// it themselves.
type Manager struct {
	store Store
	group string
}

// NewManager wraps store. group defaults to DefaultConsumerGroup.
func NewManager(store Store, group string) *Manager {
	if group == "" {
		group = DefaultConsumerGroup
	}
	return &Manager{store: store, group: group}
}

// EnsureStreams idempotently creates the consumer group on all five
// named streams; callers invoke this once at startup.
func (m *Manager) EnsureStreams(ctx context.Context) error {
	for _, stream := range []string{
		StreamCorpus, StreamAtomicTasks, StreamExtendedTasks,
		StreamVerificationQueue, StreamVerificationResults,
	} {
		if err := m.store.EnsureGroup(ctx, stream, m.group); err != nil {
			return err
		}
	}
	return nil
}

// Publish marshals v and appends it to stream.
func (m *Manager) Publish(ctx context.Context, stream string, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return m.store.Publish(ctx, stream, payload)
}

// PublishBatch marshals each element of vs and appends them to stream
// in one round trip.
func (m *Manager) PublishBatch(ctx context.Context, stream string, vs []any) ([]string, error) {
	payloads := make([]json.RawMessage, len(vs))
	for i, v := range vs {
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		payloads[i] = payload
	}
	return m.store.PublishBatch(ctx, stream, payloads)
}

// Consume claims up to maxCount records from stream for the manager's
// consumer group.
func (m *Manager) Consume(ctx context.Context, stream string, maxCount int, blockDuration time.Duration) ([]Record, error) {
	return m.store.Consume(ctx, stream, m.group, maxCount, blockDuration)
}

// Ack acknowledges id on stream for the manager's consumer group.
func (m *Manager) Ack(ctx context.Context, stream, id string) error {
	return m.store.Ack(ctx, stream, m.group, id)
}

// Close releases the underlying store's resources.
func (m *Manager) Close() error {
	return m.store.Close()
}
