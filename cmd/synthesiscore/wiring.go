package main

import (
	"context"
	"fmt"

	"github.com/synthesiscore/core/internal/adaptive"
	"github.com/synthesiscore/core/internal/atomic"
	"github.com/synthesiscore/core/internal/config"
	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/depth"
	"github.com/synthesiscore/core/internal/ingest"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/mcp"
	"github.com/synthesiscore/core/internal/obs"
	"github.com/synthesiscore/core/internal/queue"
	"github.com/synthesiscore/core/internal/realtime"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/internal/verify"
	"github.com/synthesiscore/core/internal/width"
)

// pipeline bundles every wired component a command needs, assembled
// once from a loaded config.Config.
type pipeline struct {
	cfg     *config.Config
	logger  *obs.Logger
	metrics *obs.Metrics
	tracer  *obs.Tracer

	mcpMgr  *mcp.Manager
	tools   toolclient.Client
	llmCli  llm.Client
	ledger  *cost.Ledger
	queue   *queue.Manager
	trigger *realtime.Trigger
}

// buildPipeline wires every pipeline stage from cfg, grounded on
// handlers_serve.go's load-config-then-construct-gateway sequence.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	logger := obs.NewLogger(obs.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	metrics := obs.NewMetrics()
	tracer, _ := obs.NewTracer(obs.TraceConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		Endpoint:     cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Insecure:     cfg.Tracing.Insecure,
	})

	mcpMgr := mcp.NewManager(&cfg.MCP, logger.Slog())
	if err := mcpMgr.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp manager: %w", err)
	}
	tools := toolclient.NewManagerClient(mcpMgr, 0)

	llmCli, err := buildLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	store, err := buildQueueStore(ctx, cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("build queue store: %w", err)
	}
	qm := queue.NewManager(store, cfg.Queue.ConsumerGroup)
	if err := qm.EnsureStreams(ctx); err != nil {
		return nil, fmt.Errorf("ensure queue streams: %w", err)
	}

	ledger := cost.NewLedger(0, 0)

	ingestor := ingest.New(tools, logger.Slog())
	generator := atomic.New(llmCli, tools, cfg.Atomic, logger.Slog())
	depthExtender := depth.New(llmCli, tools, cfg.Depth, logger.Slog())
	widthExtender := width.New(llmCli, cfg.Width, logger.Slog())
	verifier := verify.New(llmCli, tools, cfg.Verify, logger.Slog())
	controller := adaptive.New(cfg.Adaptive, cfg.Atomic.AtomicityThreshold, cfg.Width.SemanticSimilarityThreshold)

	trigger := realtime.New(ingestor, generator, depthExtender, widthExtender, verifier, controller, ledger, cfg.Realtime, logger.Slog())

	return &pipeline{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		mcpMgr:  mcpMgr,
		tools:   tools,
		llmCli:  llmCli,
		ledger:  ledger,
		queue:   qm,
		trigger: trigger,
	}, nil
}

// buildLLMClient builds the default provider's adapter, wrapped in a
// FallbackChain when cfg.FallbackChain names additional providers.
func buildLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	clients := []llm.Client{}

	primary, err := buildProviderAdapter(ctx, cfg.DefaultProvider, cfg.Providers[cfg.DefaultProvider])
	if err != nil {
		return nil, err
	}
	clients = append(clients, primary)

	for _, providerID := range cfg.FallbackChain {
		if providerID == cfg.DefaultProvider {
			continue
		}
		adapter, err := buildProviderAdapter(ctx, providerID, cfg.Providers[providerID])
		if err != nil {
			return nil, fmt.Errorf("fallback provider %q: %w", providerID, err)
		}
		clients = append(clients, adapter)
	}

	if len(clients) == 1 {
		return clients[0], nil
	}
	return llm.NewFallbackChain(clients...)
}

func buildProviderAdapter(ctx context.Context, providerID string, cfg config.LLMProviderConfig) (llm.Client, error) {
	switch providerID {
	case "anthropic":
		return llm.NewAnthropicAdapter(llm.AnthropicConfig{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, DefaultModel: cfg.DefaultModel,
		})
	case "openai":
		return llm.NewOpenAIAdapter(llm.OpenAIConfig{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, DefaultModel: cfg.DefaultModel,
		})
	case "google":
		return llm.NewGoogleAdapter(ctx, llm.GoogleConfig{
			APIKey: cfg.APIKey, DefaultModel: cfg.DefaultModel,
		})
	case "bedrock":
		return llm.NewBedrockAdapter(ctx, llm.BedrockConfig{DefaultModel: cfg.DefaultModel})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", providerID)
	}
}

func buildQueueStore(ctx context.Context, cfg config.QueueConfig) (queue.Store, error) {
	switch cfg.Backend {
	case "postgres":
		return queue.NewPostgresStoreFromDSN(ctx, cfg.DSN, queue.DefaultPostgresConfig())
	case "sqlite":
		return queue.NewSQLiteStore(ctx, cfg.DSN, queue.DefaultSQLiteConfig())
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}

// Close releases every resource buildPipeline acquired.
func (p *pipeline) Close() {
	if p.trigger != nil {
		p.trigger.Stop()
	}
	if p.queue != nil {
		if err := p.queue.Close(); err != nil {
			p.logger.Warn("error closing queue", "error", err.Error())
		}
	}
}
