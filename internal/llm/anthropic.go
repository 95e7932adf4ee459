package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures the Anthropic adapter.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// AnthropicAdapter implements Client against the Anthropic Messages API.
type AnthropicAdapter struct {
	baseAdapter
	client       anthropic.Client
	defaultModel string
}

// NewAnthropicAdapter builds an adapter from config.
func NewAnthropicAdapter(config AnthropicConfig) (*AnthropicAdapter, error) {
	if config.APIKey == "" {
		return nil, errors.New("llm: anthropic API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicAdapter{
		baseAdapter:  newBaseAdapter("anthropic", config.MaxRetries, config.RetryDelay),
		client:       anthropic.NewClient(opts...),
		defaultModel: config.DefaultModel,
	}, nil
}

// Complete implements Client.
func (a *AnthropicAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, *Usage, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}

	var system string
	var msgParams []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleAssistant:
			msgParams = append(msgParams, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgParams = append(msgParams, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	params.Messages = msgParams
	if len(opts.StopSequences) > 0 {
		params.StopSequences = opts.StopSequences
	}

	var result *anthropic.Message
	err := a.retry(callCtx, func(err error) bool {
		return isRetryableAnthropicError(err)
	}, func() error {
		resp, err := a.client.Messages.New(callCtx, params)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", nil, wrapAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	usage := &Usage{
		PromptTokens:     int(result.Usage.InputTokens),
		CompletionTokens: int(result.Usage.OutputTokens),
		Model:            string(result.Model),
		CachedTokens:     int(result.Usage.CacheReadInputTokens),
	}

	return text.String(), usage, nil
}

func isRetryableAnthropicError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	return isTransientMessage(err.Error())
}

func wrapAnthropicError(err error) *ProviderError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   "anthropic",
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
			Retryable:  isRetryableAnthropicError(err),
			Err:        err,
		}
	}
	return &ProviderError{
		Provider:  "anthropic",
		Message:   err.Error(),
		Retryable: isTransientMessage(err.Error()),
		Err:       err,
	}
}
