// Package config loads and validates SynthesisCore's configuration:
// the tunables for every pipeline stage plus the ambient server,
// queue, LLM, and logging settings around them.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/synthesiscore/core/internal/adaptive"
	"github.com/synthesiscore/core/internal/atomic"
	"github.com/synthesiscore/core/internal/depth"
	"github.com/synthesiscore/core/internal/mcp"
	"github.com/synthesiscore/core/internal/realtime"
	"github.com/synthesiscore/core/internal/verify"
	"github.com/synthesiscore/core/internal/width"
)

// Config is the root configuration structure for SynthesisCore.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Queue   QueueConfig   `yaml:"queue"`
	LLM     LLMConfig     `yaml:"llm"`
	MCP     mcp.Config    `yaml:"mcp"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`

	Atomic   atomic.Config   `yaml:"atomic"`
	Depth    depth.Config    `yaml:"depth"`
	Width    width.Config    `yaml:"width"`
	Verify   verify.Config   `yaml:"verify"`
	Adaptive adaptive.Config `yaml:"adaptive"`
	Realtime realtime.Config `yaml:"realtime"`
}

// Load reads, env-expands, parses, defaults, and validates a YAML
// config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyQueueDefaults(&cfg.Queue)
	applyLLMDefaults(&cfg.LLM)
	applyLoggingDefaults(&cfg.Logging)
	applyTracingDefaults(&cfg.Tracing)

	if cfg.Atomic == (atomic.Config{}) {
		cfg.Atomic = atomic.DefaultConfig()
	}
	if cfg.Depth == (depth.Config{}) {
		cfg.Depth = depth.DefaultConfig()
	}
	if cfg.Width == (width.Config{}) {
		cfg.Width = width.DefaultConfig()
	}
	if cfg.Verify == (verify.Config{}) {
		cfg.Verify = verify.DefaultConfig()
	}
	if cfg.Adaptive == (adaptive.Config{}) {
		cfg.Adaptive = adaptive.DefaultConfig()
	}
	if cfg.Realtime == (realtime.Config{}) {
		cfg.Realtime = realtime.DefaultConfig()
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if value := strings.TrimSpace(os.Getenv("SYNTHESISCORE_HOST")); value != "" {
		cfg.Server.Host = value
	}
	if value := strings.TrimSpace(os.Getenv("SYNTHESISCORE_HTTP_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.HTTPPort = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("SYNTHESISCORE_METRICS_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.MetricsPort = parsed
		}
	}

	if value := strings.TrimSpace(os.Getenv("QUEUE_DSN")); value != "" {
		cfg.Queue.DSN = value
	}

	for provider, key := range map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GOOGLE_API_KEY",
	} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			if cfg.LLM.Providers == nil {
				cfg.LLM.Providers = map[string]LLMProviderConfig{}
			}
			entry := cfg.LLM.Providers[provider]
			entry.APIKey = value
			cfg.LLM.Providers[provider] = entry
		}
	}
}

// ConfigValidationError collects every validation issue found so a
// caller sees the whole problem in one pass rather than fixing and
// re-running one error at a time.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var issues []string

	if cfg.Queue.Backend != "postgres" && cfg.Queue.Backend != "sqlite" {
		issues = append(issues, "queue.backend must be \"postgres\" or \"sqlite\"")
	}
	if strings.TrimSpace(cfg.Queue.DSN) == "" {
		issues = append(issues, "queue.dsn is required")
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		issues = append(issues, "llm.default_provider is required")
	} else if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
		issues = append(issues, fmt.Sprintf("llm.default_provider %q has no matching entry under llm.providers", cfg.LLM.DefaultProvider))
	}

	if cfg.Verify.QualityThreshold <= 0 || cfg.Verify.QualityThreshold > 1 {
		issues = append(issues, "verify.quality_threshold must be in (0, 1]")
	}
	if cfg.Verify.MaxConcurrent <= 0 {
		issues = append(issues, "verify.max_concurrent must be > 0")
	}
	if cfg.Adaptive.MinBatchSize <= 0 || cfg.Adaptive.MaxBatchSize < cfg.Adaptive.MinBatchSize {
		issues = append(issues, "adaptive.min_batch_size/max_batch_size must satisfy 0 < min <= max")
	}
	if cfg.Adaptive.LowBand >= cfg.Adaptive.HighBand {
		issues = append(issues, "adaptive.low_band must be less than adaptive.high_band")
	}
	if cfg.Depth.MaxHops <= 0 {
		issues = append(issues, "depth.max_hops must be > 0")
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}
	return nil
}
