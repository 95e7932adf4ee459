package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, "file::memory:?cache=shared", nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(store, "")
	if err := m.EnsureStreams(ctx); err != nil {
		t.Fatalf("EnsureStreams: %v", err)
	}
	return m
}

type payload struct {
	Value string `json:"value"`
}

func TestManager_PublishConsumeAck(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	id, err := m.Publish(ctx, StreamCorpus, payload{Value: "hello"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	records, err := m.Consume(ctx, StreamCorpus, 10, 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	var got payload
	if err := json.Unmarshal(records[0].Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.Value != "hello" {
		t.Errorf("payload.Value = %q, want hello", got.Value)
	}

	if err := m.Ack(ctx, StreamCorpus, records[0].ID); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	// Double-ack must be a no-op, not an error.
	if err := m.Ack(ctx, StreamCorpus, records[0].ID); err != nil {
		t.Fatalf("double Ack: %v", err)
	}

	// An acked record must not be redelivered.
	again, err := m.Consume(ctx, StreamCorpus, 10, 0)
	if err != nil {
		t.Fatalf("Consume after ack: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("len(again) = %d, want 0 after ack", len(again))
	}
}

func TestManager_UnackedRecordIsNotRedeliveredBeforeClaimExpires(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if _, err := m.Publish(ctx, StreamAtomicTasks, payload{Value: "x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	first, err := m.Consume(ctx, StreamAtomicTasks, 10, 0)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Consume: records=%v err=%v", first, err)
	}

	// Without acking, a fresh claim window should not hand the same
	// record back out immediately.
	second, err := m.Consume(ctx, StreamAtomicTasks, 10, 0)
	if err != nil {
		t.Fatalf("second Consume: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("len(second) = %d, want 0 (record still claimed)", len(second))
	}
}

func TestManager_PublishBatch(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	ids, err := m.PublishBatch(ctx, StreamVerificationQueue, []any{
		payload{Value: "a"}, payload{Value: "b"}, payload{Value: "c"},
	})
	if err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3", len(ids))
	}

	records, err := m.Consume(ctx, StreamVerificationQueue, 10, 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
}

func TestManager_EnsureStreamsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if err := m.EnsureStreams(ctx); err != nil {
		t.Fatalf("second EnsureStreams: %v", err)
	}
}

func TestManager_ConsumeBlocksUntilPublish(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(30 * time.Millisecond)
		_, _ = m.Publish(ctx, StreamExtendedTasks, payload{Value: "late"})
	}()

	records, err := m.Consume(ctx, StreamExtendedTasks, 1, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	<-done
}
