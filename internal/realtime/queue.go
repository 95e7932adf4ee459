// Package realtime implements RealTimeTrigger: the top-level driver
// that converts trajectory-completed events into fully-verified tasks.
package realtime

import (
	"context"

	"github.com/synthesiscore/core/pkg/models"
)

// Request is one trajectory-completed event awaiting extension.
type Request struct {
	ID         string
	Trajectory models.Trajectory
}

// ExtensionQueue holds two FIFO in-memory channels.8:
// priority (cap 100, drained first) and normal (cap 1000).
type ExtensionQueue struct {
	priority chan Request
	normal   chan Request
}

// NewExtensionQueue builds the two fixed-capacity channels.
func NewExtensionQueue() *ExtensionQueue {
	return &ExtensionQueue{
		priority: make(chan Request, 100),
		normal:   make(chan Request, 1000),
	}
}

// PutHighPriority enqueues onto the priority channel, blocking if full.
func (q *ExtensionQueue) PutHighPriority(ctx context.Context, req Request) error {
	select {
	case q.priority <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PutNormal enqueues onto the normal channel, blocking if full.
func (q *ExtensionQueue) PutNormal(ctx context.Context, req Request) error {
	select {
	case q.normal <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetNext drains the priority channel first; only once it is empty
// does it wait on the normal channel.
func (q *ExtensionQueue) GetNext(ctx context.Context) (Request, error) {
	select {
	case req := <-q.priority:
		return req, nil
	default:
	}

	select {
	case req := <-q.priority:
		return req, nil
	case req := <-q.normal:
		return req, nil
	case <-ctx.Done():
		return Request{}, ctx.Err()
	}
}

// Sizes reports the current depth of each channel.
func (q *ExtensionQueue) Sizes() (priority, normal int) {
	return len(q.priority), len(q.normal)
}
