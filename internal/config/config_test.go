package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunk.Size != 1000 || cfg.Chunk.Overlap != 200 {
		t.Errorf("chunk defaults = %d/%d", cfg.Chunk.Size, cfg.Chunk.Overlap)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k default = %d", cfg.Retrieval.TopK)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port default = %d", cfg.Server.Port)
	}
	if len(cfg.Categories) == 0 {
		t.Error("default categories missing")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualbot.yml")
	content := `categories: [faq, framework]
chunk:
  size: 500
  overlap: 100
server:
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0] != "faq" {
		t.Errorf("categories = %v", cfg.Categories)
	}
	if cfg.Chunk.Size != 500 || cfg.Chunk.Overlap != 100 {
		t.Errorf("chunk = %d/%d", cfg.Chunk.Size, cfg.Chunk.Overlap)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Generation.TimeoutSecs != 60 {
		t.Errorf("timeout default lost: %d", cfg.Generation.TimeoutSecs)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("QUALBOT_DATA_DIR", "/srv/corpus")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/srv/corpus" {
		t.Errorf("data_dir = %q, want env override", cfg.DataDir)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualbot.yml")

	cfg := DefaultConfig()
	cfg.Categories = []string{"faq", "apel"}
	cfg.Fallback.Threshold = 0.75
	cfg.Generation.Model = "llama3:70b"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Categories) != 2 || loaded.Categories[1] != "apel" {
		t.Errorf("categories = %v", loaded.Categories)
	}
	if loaded.Fallback.Threshold != 0.75 {
		t.Errorf("threshold = %f", loaded.Fallback.Threshold)
	}
	if loaded.Generation.Model != "llama3:70b" {
		t.Errorf("model = %q", loaded.Generation.Model)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad category", func(c *Config) { c.Categories = []string{"Bad Name"} }, "categories"},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "data_dir"},
		{"zero chunk size", func(c *Config) { c.Chunk.Size = 0 }, "chunk.size"},
		{"overlap too large", func(c *Config) { c.Chunk.Overlap = c.Chunk.Size }, "chunk.overlap"},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }, "top_k"},
		{"bad provider", func(c *Config) { c.Generation.Provider = "bedrock" }, "generation.provider"},
		{"no model", func(c *Config) { c.Generation.Model = "" }, "generation.model"},
		{"bad threshold", func(c *Config) { c.Fallback.Threshold = 1.5 }, "threshold"},
		{"zero max turns", func(c *Config) { c.Session.MaxTurns = 0 }, "max_turns"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("openai env var = %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("ollama needs no key, got %q", got)
	}
}
