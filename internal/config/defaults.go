package config

import "github.com/qualbot/qualbot/internal/category"

// DefaultExcludes are glob patterns skipped by the document loader by default.
var DefaultExcludes = []string{
	".*/**",
	"**/~$*",
	"*.tmp",
	"*.lock",
}

// DefaultConfig returns a Config with sensible defaults. The retrieval and
// generation defaults match the original deployment of this service: three
// passages per query, low temperature, sixty second generation timeout.
func DefaultConfig() *Config {
	cats := make([]string, len(category.Defaults))
	for i, c := range category.Defaults {
		cats[i] = string(c)
	}

	return &Config{
		Categories: cats,
		DataDir:    "data",
		IndexDir:   "index",
		HistoryDB:  "qualbot.db",
		Include:    []string{"**/*.txt", "**/*.md", "**/*.pdf", "**/*.docx"},
		Exclude:    DefaultExcludes,
		Chunk: ChunkConfig{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:          3,
			MaxRetries:    2,
			RetryDelayMS:  250,
			ContextBudget: 6000,
		},
		Generation: GenerationConfig{
			Provider:    ProviderOllama,
			Model:       "llama3:8b",
			Temperature: 0.1,
			MaxTokens:   1024,
			TimeoutSecs: 60,
		},
		Embedding: EmbeddingConfig{
			Provider:   ProviderOllama,
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Fallback: FallbackConfig{
			Path:      "fallback.yml",
			Threshold: 0.8,
			HotReload: true,
		},
		Session: SessionConfig{
			MaxTurns:     50,
			ContextTurns: 4,
		},
		Server: ServerConfig{
			Port: 5000,
		},
	}
}
