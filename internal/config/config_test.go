package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
queue:
  dsn: "file:test.db"
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: sk-test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Server.HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Queue.Backend != "sqlite" {
		t.Errorf("Queue.Backend = %q, want sqlite", cfg.Queue.Backend)
	}
	if cfg.Verify.QualityThreshold != 0.75 {
		t.Errorf("Verify.QualityThreshold = %v, want 0.75", cfg.Verify.QualityThreshold)
	}
	if cfg.Adaptive.MaxBatchSize != 20 {
		t.Errorf("Adaptive.MaxBatchSize = %d, want 20", cfg.Adaptive.MaxBatchSize)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
queue:
  dsn: "file:test.db"
  nonexistent_field: true
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: sk-test
`)

	if _, err := Load(path); err == nil {
		t.Error("expected Load to reject an unknown field")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_API_KEY", "sk-from-env")
	path := writeConfig(t, dir, "config.yaml", `
queue:
  dsn: "file:test.db"
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: "${TEST_API_KEY}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Providers["anthropic"].APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want sk-from-env", cfg.LLM.Providers["anthropic"].APIKey)
	}
}

func TestValidateConfig_RejectsMissingDSN(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: sk-test
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for missing queue.dsn")
	}
	verr, ok := err.(*ConfigValidationError)
	if !ok {
		t.Fatalf("error type = %T, want *ConfigValidationError", err)
	}
	found := false
	for _, issue := range verr.Issues {
		if issue == "queue.dsn is required" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want one mentioning queue.dsn", verr.Issues)
	}
}

func TestValidateConfig_RejectsUnknownDefaultProvider(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
queue:
  dsn: "file:test.db"
llm:
  default_provider: mistral
  providers:
    anthropic:
      api_key: sk-test
`)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error when default_provider has no matching entry")
	}
}

func TestEnvOverrides_TakePrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SYNTHESISCORE_HTTP_PORT", "9999")
	path := writeConfig(t, dir, "config.yaml", `
server:
  http_port: 8080
queue:
  dsn: "file:test.db"
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: sk-test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9999 {
		t.Errorf("Server.HTTPPort = %d, want 9999 from env override", cfg.Server.HTTPPort)
	}
}

func TestLoadIncluding_MergesIncludedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "secrets.yaml", `
llm:
  providers:
    anthropic:
      api_key: sk-from-include
`)
	path := writeConfig(t, dir, "config.yaml", `
$include: secrets.yaml
queue:
  dsn: "file:test.db"
llm:
  default_provider: anthropic
`)

	cfg, err := LoadIncluding(path)
	if err != nil {
		t.Fatalf("LoadIncluding: %v", err)
	}
	if cfg.LLM.Providers["anthropic"].APIKey != "sk-from-include" {
		t.Errorf("APIKey = %q, want sk-from-include", cfg.LLM.Providers["anthropic"].APIKey)
	}
}
