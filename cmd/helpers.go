package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/qualbot/qualbot/internal/config"
	"github.com/qualbot/qualbot/internal/db"
	"github.com/qualbot/qualbot/internal/embeddings"
	"github.com/qualbot/qualbot/internal/engine"
	"github.com/qualbot/qualbot/internal/fallback"
	"github.com/qualbot/qualbot/internal/llm"
	"github.com/qualbot/qualbot/internal/loader"
	"github.com/qualbot/qualbot/internal/session"
	"github.com/qualbot/qualbot/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `qualbot init` to create a config file", err)
	}
	return cfg, nil
}

// createEmbedder creates an embeddings.Embedder based on config, wrapped
// with the configured retry policy.
func createEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	var inner embeddings.Embedder

	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		inner = embeddings.NewOpenAIEmbedder(apiKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	case config.ProviderOllama:
		inner = embeddings.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimensions, os.Getenv("OLLAMA_HOST"))
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}

	delay := time.Duration(cfg.Retrieval.RetryDelayMS) * time.Millisecond
	return embeddings.WithRetry(inner, cfg.Retrieval.MaxRetries, delay), nil
}

// createProvider creates the completion provider. A creation failure is not
// fatal to callers that can degrade to the fallback path; they pass the nil
// provider through and log the reason.
func createProvider(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Generation.Provider), cfg.Generation.Model)
	if err != nil {
		return nil, err
	}
	if cfg.Generation.RPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.Generation.RPM)
	}
	return provider, nil
}

// app bundles the assembled pipeline for the commands.
type app struct {
	engine  *engine.Engine
	matcher *fallback.Matcher
	close   func()
}

// buildApp assembles the full pipeline from config. app.close releases the
// conversation store.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	registry := cfg.Registry()

	embedder, err := createEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store := vectordb.NewChromemStore(embedder, cfg.IndexDir, registry)
	if err := store.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load indexes from %s: %v\n", cfg.IndexDir, err)
		fmt.Fprintf(os.Stderr, "Queries will use the fallback table. Run `qualbot ingest` first.\n")
	}

	provider, err := createProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: completion provider unavailable, answering from the fallback table: %v\n", err)
		provider = nil
	}

	table, err := fallback.LoadTable(cfg.Fallback.Path)
	if err != nil {
		return nil, fmt.Errorf("loading fallback table %s: %w", cfg.Fallback.Path, err)
	}
	matcher := fallback.NewMatcher(table, cfg.Fallback.Threshold)

	database, err := db.Open(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening conversation store: %w", err)
	}
	sessions := session.NewManager(database, cfg.Session.MaxTurns)

	ld := loader.New(cfg.Include, cfg.Exclude)

	eng := engine.New(cfg, registry, ld, store, embedder, provider, matcher, sessions)
	return &app{
		engine:  eng,
		matcher: matcher,
		close:   func() { database.Close() },
	}, nil
}
