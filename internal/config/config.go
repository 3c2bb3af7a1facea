// Package config loads the unified qualbot configuration: one versioned
// structure keyed by category, read once at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/qualbot/qualbot/internal/category"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (QUALBOT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: QUALBOT_DATA_DIR -> data_dir, etc.
	if err := k.Load(env.Provider("QUALBOT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "QUALBOT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if _, err := category.NewRegistry(c.Categories); err != nil {
		return fmt.Errorf("categories: %w", err)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.IndexDir == "" {
		return fmt.Errorf("index_dir is required")
	}

	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive")
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, chunk.size)")
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if c.Retrieval.MaxRetries < 0 {
		return fmt.Errorf("retrieval.max_retries must be non-negative")
	}

	if !validProviders[c.Generation.Provider] {
		return fmt.Errorf("invalid generation.provider %q: must be one of openai, ollama", c.Generation.Provider)
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Generation.TimeoutSecs <= 0 {
		return fmt.Errorf("generation.timeout_secs must be positive")
	}

	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding.provider %q: must be one of openai, ollama", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}

	if c.Fallback.Threshold < 0 || c.Fallback.Threshold > 1 {
		return fmt.Errorf("fallback.threshold must be in [0, 1]")
	}

	if c.Session.MaxTurns <= 0 {
		return fmt.Errorf("session.max_turns must be positive")
	}
	if c.Session.ContextTurns < 0 {
		return fmt.Errorf("session.context_turns must be non-negative")
	}

	return nil
}

// Registry builds the category registry from the configured list.
// Load has already validated the names.
func (c *Config) Registry() *category.Registry {
	r, err := category.NewRegistry(c.Categories)
	if err != nil {
		// Unreachable after Validate; keep the failure loud.
		panic(fmt.Sprintf("config: invalid categories after validation: %v", err))
	}
	return r
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
