package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the gazette engine configuration.
type Config struct {
	Ops        OpsConfig        `yaml:"ops"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// OpsConfig holds the operational HTTP listener settings (health, metrics).
type OpsConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider and vectorizer settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, ollama
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"` // set for ollama (http://host:11434/v1)
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	CacheTTLHours       int    `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// GenerationConfig holds text generation settings. Providers are tried in
// listed order; the first that succeeds wins.
type GenerationConfig struct {
	Providers   []GenProviderConfig `yaml:"providers"`
	MaxTokens   int                 `yaml:"max_tokens"`
	Temperature float32             `yaml:"temperature"`
}

// GenProviderConfig holds one generation provider entry. TimeoutSec bounds a
// single attempt against this provider; exceeding it counts as a provider
// failure and advances the router to the next entry.
type GenProviderConfig struct {
	Name       string `yaml:"name"` // anthropic, gemini, openai, ollama
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RetrievalConfig holds search settings.
type RetrievalConfig struct {
	KMax     int `yaml:"k_max"`
	KDefault int `yaml:"k_default"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	SourceDir string `yaml:"source_dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Ops.Port <= 0 {
		c.Ops.Port = 9090
	}
	if c.Ops.ReadTimeoutSec <= 0 {
		c.Ops.ReadTimeoutSec = 10
	}
	if c.Ops.WriteTimeoutSec <= 0 {
		c.Ops.WriteTimeoutSec = 10
	}
	if c.Ops.ShutdownSec <= 0 {
		c.Ops.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.3
	}
	for i := range c.Generation.Providers {
		if c.Generation.Providers[i].TimeoutSec <= 0 {
			c.Generation.Providers[i].TimeoutSec = 60
		}
	}
	if c.Retrieval.KMax <= 0 {
		c.Retrieval.KMax = 100
	}
	if c.Retrieval.KDefault <= 0 {
		c.Retrieval.KDefault = 5
	}
	if c.Ingest.SourceDir == "" {
		c.Ingest.SourceDir = "data/pages"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Ops.Port <= 0 || c.Ops.Port > 65535 {
		return fmt.Errorf("ops.port must be between 1 and 65535, got %d", c.Ops.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Provider {
	case "openai", "ollama":
		// ok
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"ollama\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "ollama" && c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required for the ollama provider")
	}
	if len(c.Generation.Providers) == 0 {
		return fmt.Errorf("generation.providers must list at least one provider")
	}
	for i, p := range c.Generation.Providers {
		switch p.Name {
		case "anthropic", "gemini", "openai", "ollama":
			// ok
		default:
			return fmt.Errorf("generation.providers[%d].name %q is not supported", i, p.Name)
		}
		if p.Model == "" {
			return fmt.Errorf("generation.providers[%d].model is required", i)
		}
		if p.Name == "ollama" && p.BaseURL == "" {
			return fmt.Errorf("generation.providers[%d].base_url is required for ollama", i)
		}
	}
	if c.Retrieval.KDefault > c.Retrieval.KMax {
		return fmt.Errorf("retrieval.k_default %d exceeds retrieval.k_max %d",
			c.Retrieval.KDefault, c.Retrieval.KMax)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
