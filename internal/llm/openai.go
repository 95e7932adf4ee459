package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-wire-compatible adapter. Setting
// BaseURL to a DeepSeek or local vLLM endpoint reuses this same adapter,
// since both speak the OpenAI chat-completions wire format.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// OpenAIAdapter implements Client against any OpenAI-compatible
// chat-completions endpoint (OpenAI, DeepSeek, vLLM).
type OpenAIAdapter struct {
	baseAdapter
	client       *openai.Client
	defaultModel string
}

// NewOpenAIAdapter builds an adapter from config.
func NewOpenAIAdapter(config OpenAIConfig) (*OpenAIAdapter, error) {
	if config.APIKey == "" && strings.TrimSpace(config.BaseURL) == "" {
		return nil, errors.New("llm: openai API key or base URL is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = openai.GPT4o
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if strings.TrimSpace(config.BaseURL) != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIAdapter{
		baseAdapter:  newBaseAdapter("openai", config.MaxRetries, config.RetryDelay),
		client:       openai.NewClientWithConfig(clientConfig),
		defaultModel: config.DefaultModel,
	}, nil
}

// Complete implements Client.
func (a *OpenAIAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, *Usage, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var chatMessages []openai.ChatCompletionMessage
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: float32(opts.Temperature),
		Stop:        opts.StopSequences,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	var resp openai.ChatCompletionResponse
	err := a.retry(callCtx, func(err error) bool {
		return isRetryableOpenAIError(err)
	}, func() error {
		r, err := a.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return "", nil, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, &ProviderError{Provider: "openai", Message: "empty response choices"}
	}

	usage := &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Model:            resp.Model,
	}

	return resp.Choices[0].Message.Content, usage, nil
}

func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	return isTransientMessage(err.Error())
}

func wrapOpenAIError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Retryable:  isRetryableOpenAIError(err),
			Err:        err,
		}
	}
	return &ProviderError{
		Provider:  "openai",
		Message:   err.Error(),
		Retryable: isTransientMessage(err.Error()),
		Err:       err,
	}
}
