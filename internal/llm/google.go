package llm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"
)

// GoogleConfig configures the Gemini adapter.
type GoogleConfig struct {
	APIKey       string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// GoogleAdapter implements Client against the Gemini API, covering the
// gemini-2.5-{flash,pro,flash-lite} models priced in internal/cost.
type GoogleAdapter struct {
	baseAdapter
	client       *genai.Client
	defaultModel string
}

// NewGoogleAdapter builds an adapter from config.
func NewGoogleAdapter(ctx context.Context, config GoogleConfig) (*GoogleAdapter, error) {
	if config.APIKey == "" {
		return nil, errors.New("llm: google API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GoogleAdapter{
		baseAdapter:  newBaseAdapter("google", config.MaxRetries, config.RetryDelay),
		client:       client,
		defaultModel: config.DefaultModel,
	}, nil
}

// Complete implements Client.
func (a *GoogleAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, *Usage, error) {
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

	var systemInstruction *genai.Content
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	genConfig := &genai.GenerateContentConfig{}
	if systemInstruction != nil {
		genConfig.SystemInstruction = systemInstruction
	}
	if opts.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		genConfig.Temperature = &temp
	}

	var result *genai.GenerateContentResponse
	err := a.retry(callCtx, func(err error) bool {
		return isTransientMessage(err.Error())
	}, func() error {
		resp, err := a.client.Models.GenerateContent(callCtx, model, contents, genConfig)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", nil, &ProviderError{
			Provider:  "google",
			Message:   err.Error(),
			Retryable: isTransientMessage(err.Error()),
			Err:       err,
		}
	}

	text := result.Text()
	usage := &Usage{Model: model}
	if result.UsageMetadata != nil {
		usage.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
		usage.CachedTokens = int(result.UsageMetadata.CachedContentTokenCount)
	}

	return text, usage, nil
}
