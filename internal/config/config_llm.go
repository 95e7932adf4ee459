package config

// LLMConfig selects which provider backs llm.Client and how to build
// it, covering the providers internal/llm implements (AnthropicAdapter,
// OpenAI-compatible adapter, GoogleAdapter, BedrockAdapter) plus a
// fallback chain for internal/llm/chain.go.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`

	// FallbackChain lists provider IDs to try, in order, if the
	// default provider's call fails.
	FallbackChain []string `yaml:"fallback_chain"`
}

// LLMProviderConfig configures one llm.Client adapter.
type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
}

func applyLLMDefaults(cfg *LLMConfig) {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = "anthropic"
	}
}
