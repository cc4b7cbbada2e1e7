package config

import "testing"

func validConfig() Config {
	cfg := Config{
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Generation: GenerationConfig{
			Providers: []GenProviderConfig{
				{Name: "anthropic", APIKey: "test-key", Model: "claude-sonnet-4-20250514"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Ops.Port != 9090 {
		t.Errorf("ops.port = %d", cfg.Ops.Port)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("embedding.provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding.model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("embedding.dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Generation.MaxTokens != 1024 {
		t.Errorf("generation.max_tokens = %d", cfg.Generation.MaxTokens)
	}
	for i, p := range cfg.Generation.Providers {
		if p.TimeoutSec != 60 {
			t.Errorf("generation.providers[%d].timeout_sec = %d, want 60", i, p.TimeoutSec)
		}
	}
	if cfg.Retrieval.KMax != 100 || cfg.Retrieval.KDefault != 5 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Ingest.SourceDir != "data/pages" {
		t.Errorf("ingest.source_dir = %q", cfg.Ingest.SourceDir)
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_UnknownEmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "cohere"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
}

func TestValidate_OllamaEmbeddingRequiresBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ollama without base_url")
	}

	cfg.Embedding.BaseURL = "http://localhost:11434/v1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoGenerationProviders(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Providers = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty provider list")
	}
}

func TestValidate_UnknownGenerationProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Providers = []GenProviderConfig{{Name: "mistral", Model: "m"}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported provider name")
	}
}

func TestValidate_ProviderRequiresModel(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Providers = []GenProviderConfig{{Name: "gemini"}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for provider without model")
	}
}

func TestValidate_OllamaGenerationRequiresBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Providers = []GenProviderConfig{{Name: "ollama", Model: "llama3.1"}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ollama provider without base_url")
	}
}

func TestValidate_KDefaultAboveKMax(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.KMax = 10
	cfg.Retrieval.KDefault = 20

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for k_default above k_max")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GAZETTE_TEST_ADDR", "redis:7000")

	got := string(expandEnvVars([]byte("addr: ${GAZETTE_TEST_ADDR}")))
	if got != "addr: redis:7000" {
		t.Errorf("expanded = %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	got := string(expandEnvVars([]byte("addr: ${GAZETTE_UNSET_VAR:-localhost:6379}")))
	if got != "addr: localhost:6379" {
		t.Errorf("expanded = %q", got)
	}

	t.Setenv("GAZETTE_SET_VAR", "override")
	got = string(expandEnvVars([]byte("addr: ${GAZETTE_SET_VAR:-fallback}")))
	if got != "addr: override" {
		t.Errorf("expanded = %q", got)
	}
}
