package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockConfig configures the AWS Bedrock adapter, an alternate route to
// Claude (and other Bedrock foundation models) used when the fallback
// chain in internal/config.LLMConfig names "bedrock".
type BedrockConfig struct {
	Region       string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// BedrockAdapter implements Client against AWS Bedrock's InvokeModel API
// using the Anthropic Messages wire format, the most common Bedrock
// foundation-model body shape for Claude.
type BedrockAdapter struct {
	baseAdapter
	client       *bedrockruntime.Client
	defaultModel string
}

// NewBedrockAdapter builds an adapter from config, loading AWS credentials
// from the standard SDK credential chain.
func NewBedrockAdapter(ctx context.Context, config BedrockConfig) (*BedrockAdapter, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "anthropic.claude-sonnet-4-20250514-v1:0"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("llm: loading AWS config: %w", err)
	}

	return &BedrockAdapter{
		baseAdapter:  newBaseAdapter("bedrock", config.MaxRetries, config.RetryDelay),
		client:       bedrockruntime.NewFromConfig(awsCfg),
		defaultModel: config.DefaultModel,
	}, nil
}

type bedrockAnthropicBody struct {
	AnthropicVersion string                 `json:"anthropic_version"`
	MaxTokens        int                    `json:"max_tokens"`
	System           string                 `json:"system,omitempty"`
	Messages         []bedrockMessage       `json:"messages"`
	StopSequences    []string               `json:"stop_sequences,omitempty"`
	Temperature      *float64               `json:"temperature,omitempty"`
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockAnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// Complete implements Client.
func (a *BedrockAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, *Usage, error) {
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

	body := bedrockAnthropicBody{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		StopSequences:    opts.StopSequences,
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if body.System != "" {
				body.System += "\n\n"
			}
			body.System += m.Content
		default:
			role := "user"
			if m.Role == RoleAssistant {
				role = "assistant"
			}
			body.Messages = append(body.Messages, bedrockMessage{Role: role, Content: m.Content})
		}
	}
	if opts.Temperature > 0 {
		body.Temperature = &opts.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("llm: marshaling bedrock request: %w", err)
	}

	var out *bedrockruntime.InvokeModelOutput
	retryErr := a.retry(callCtx, func(err error) bool {
		return isTransientMessage(err.Error())
	}, func() error {
		resp, err := a.client.InvokeModel(callCtx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        payload,
		})
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if retryErr != nil {
		return "", nil, &ProviderError{
			Provider:  "bedrock",
			Message:   retryErr.Error(),
			Retryable: isTransientMessage(retryErr.Error()),
			Err:       retryErr,
		}
	}

	var parsed bedrockAnthropicResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", nil, fmt.Errorf("llm: parsing bedrock response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", nil, errors.New("llm: bedrock response had no content blocks")
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	usage := &Usage{
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
		Model:            model,
	}

	return text, usage, nil
}
