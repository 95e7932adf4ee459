package llm

import (
	"context"
	"errors"
	"fmt"
)

// FallbackChain tries a sequence of Clients in order, moving to the next
// on failure, per internal/config.LLMConfig's FallbackChain field.
type FallbackChain struct {
	clients []Client
}

// NewFallbackChain builds a chain. The first client is the default
// provider; subsequent ones are only tried if an earlier one errors.
func NewFallbackChain(clients ...Client) (*FallbackChain, error) {
	if len(clients) == 0 {
		return nil, errors.New("llm: fallback chain requires at least one client")
	}
	return &FallbackChain{clients: clients}, nil
}

// Complete implements Client, trying each wrapped client in order.
func (c *FallbackChain) Complete(ctx context.Context, messages []Message, opts Options) (string, *Usage, error) {
	var lastErr error
	for _, client := range c.clients {
		text, usage, err := client.Complete(ctx, messages, opts)
		if err == nil {
			return text, usage, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
	}
	return "", nil, fmt.Errorf("llm: all providers in fallback chain failed: %w", lastErr)
}
