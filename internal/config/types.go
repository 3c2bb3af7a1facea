package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// ChunkConfig controls how documents are split into passages.
type ChunkConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// RetrievalConfig controls query-time passage retrieval.
type RetrievalConfig struct {
	TopK          int `yaml:"top_k" koanf:"top_k"`
	MaxRetries    int `yaml:"max_retries" koanf:"max_retries"`
	RetryDelayMS  int `yaml:"retry_delay_ms" koanf:"retry_delay_ms"`
	ContextBudget int `yaml:"context_budget" koanf:"context_budget"` // prompt budget in characters
}

// GenerationConfig controls the completion service.
type GenerationConfig struct {
	Provider    ProviderType `yaml:"provider" koanf:"provider"`
	Model       string       `yaml:"model" koanf:"model"`
	Temperature float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens   int          `yaml:"max_tokens" koanf:"max_tokens"`
	TimeoutSecs int          `yaml:"timeout_secs" koanf:"timeout_secs"`
	RPM         int          `yaml:"rpm" koanf:"rpm"` // 0 disables rate limiting
}

// EmbeddingConfig controls the embedding service.
type EmbeddingConfig struct {
	Provider   ProviderType `yaml:"provider" koanf:"provider"`
	Model      string       `yaml:"model" koanf:"model"`
	Dimensions int          `yaml:"dimensions" koanf:"dimensions"`
}

// FallbackConfig controls the curated-answer matcher.
type FallbackConfig struct {
	Path      string  `yaml:"path" koanf:"path"`
	Threshold float64 `yaml:"threshold" koanf:"threshold"`
	HotReload bool    `yaml:"hot_reload" koanf:"hot_reload"`
}

// SessionConfig controls conversation history.
type SessionConfig struct {
	MaxTurns     int `yaml:"max_turns" koanf:"max_turns"`         // cap per session, oldest evicted first
	ContextTurns int `yaml:"context_turns" koanf:"context_turns"` // turns included in the prompt
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level qualbot configuration, corresponding to qualbot.yml.
// The category list lives here once; indexes, fallback tables and request
// validation are all derived from it.
type Config struct {
	Categories []string         `yaml:"categories" koanf:"categories"`
	DataDir    string           `yaml:"data_dir" koanf:"data_dir"`     // per-category source documents
	IndexDir   string           `yaml:"index_dir" koanf:"index_dir"`   // per-category index artifacts
	HistoryDB  string           `yaml:"history_db" koanf:"history_db"` // sqlite conversation store
	Include    []string         `yaml:"include" koanf:"include"`       // loader include globs
	Exclude    []string         `yaml:"exclude" koanf:"exclude"`       // loader exclude globs
	Chunk      ChunkConfig      `yaml:"chunk" koanf:"chunk"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Generation GenerationConfig `yaml:"generation" koanf:"generation"`
	Embedding  EmbeddingConfig  `yaml:"embedding" koanf:"embedding"`
	Fallback   FallbackConfig   `yaml:"fallback" koanf:"fallback"`
	Session    SessionConfig    `yaml:"session" koanf:"session"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
}
