package llm

import (
	"context"
	"strings"
	"time"
)

// baseAdapter holds shared retry configuration for provider adapters.
type baseAdapter struct {
	name       string
	maxRetries int
	retryDelay time.Duration
}

func newBaseAdapter(name string, maxRetries int, retryDelay time.Duration) baseAdapter {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return baseAdapter{name: name, maxRetries: maxRetries, retryDelay: retryDelay}
}

// retry executes op with exponential backoff (retryDelay, then double
// that, and so on) while isRetryable returns true. maxRetries counts
// total attempts, so the default of 3 allows 2 retries. This is the only
// retry layer for provider calls; pipeline phases do not retry again.
func (b *baseAdapter) retry(ctx context.Context, isRetryable func(error) bool, op func() error) error {
	if op == nil {
		return nil
	}
	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if isRetryable == nil || !isRetryable(err) {
			return err
		}
		if attempt >= b.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryDelay * time.Duration(1<<(attempt-1))):
		}
	}
	return lastErr
}

func isTransientMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{
		"rate_limit", "429", "500", "502", "503", "504",
		"timeout", "connection reset", "eof",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
