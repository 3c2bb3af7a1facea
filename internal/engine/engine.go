// Package engine orchestrates the answering pipeline: retrieval, prompt
// assembly, generation, validation and the curated fallback path. It is the
// narrow contract the transport layers (HTTP, MCP, CLI) call into.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/config"
	"github.com/qualbot/qualbot/internal/embeddings"
	"github.com/qualbot/qualbot/internal/fallback"
	"github.com/qualbot/qualbot/internal/llm"
	"github.com/qualbot/qualbot/internal/loader"
	"github.com/qualbot/qualbot/internal/session"
	"github.com/qualbot/qualbot/internal/vectordb"
)

// ErrEmptyQuery is returned for a blank question. Input errors are the only
// failures surfaced to callers; every degraded condition resolves to an
// answer instead.
var ErrEmptyQuery = errors.New("query text is empty")

// Answer is the terminal result of one query. Source records which path
// produced the text; Grounding carries the passages offered to the model
// when the answer was generated.
type Answer struct {
	Text      string
	Source    session.Source
	Grounding []vectordb.Result
}

// Engine wires the pipeline components together.
type Engine struct {
	cfg      *config.Config
	registry *category.Registry
	loader   *loader.Loader
	store    vectordb.Store
	embedder embeddings.Embedder
	provider llm.Provider // nil disables generation entirely
	matcher  *fallback.Matcher
	sessions *session.Manager
}

// New assembles an engine. provider may be nil, in which case every query
// answers through the fallback path.
func New(cfg *config.Config, reg *category.Registry, ld *loader.Loader, store vectordb.Store,
	embedder embeddings.Embedder, provider llm.Provider, matcher *fallback.Matcher, sessions *session.Manager) *Engine {
	return &Engine{
		cfg:      cfg,
		registry: reg,
		loader:   ld,
		store:    store,
		embedder: embedder,
		provider: provider,
		matcher:  matcher,
		sessions: sessions,
	}
}

// Registry exposes the configured category set for request validation and
// listing endpoints.
func (e *Engine) Registry() *category.Registry { return e.registry }

// Ask answers one query. It never raises on degraded conditions (empty
// index, unavailable services, rejected generations); those resolve through
// the fallback path. Only invalid input is an error.
func (e *Engine) Ask(ctx context.Context, sessionID, categoryName, query string) (*Answer, error) {
	cat, err := e.registry.Resolve(categoryName)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	answer := e.answer(ctx, sessionID, cat, query)

	// Record the turn. A history write failure must not discard the answer
	// the user is already owed.
	if _, err := e.sessions.Append(ctx, sessionID, cat, query, answer.Text, answer.Source); err != nil {
		log.Printf("engine: recording turn for session %s: %v", sessionID, err)
	}

	return answer, nil
}

// answer runs the retrieve -> compose -> generate -> validate chain and
// falls back on any degraded condition.
func (e *Engine) answer(ctx context.Context, sessionID string, cat category.Category, query string) *Answer {
	results, err := e.retrieve(ctx, cat, query)
	if err != nil {
		switch {
		case errors.Is(err, vectordb.ErrEmptyIndex):
			log.Printf("engine: %s index empty, using fallback", cat)
		case errors.Is(err, embeddings.ErrUnavailable):
			log.Printf("engine: embedding unavailable for %s, using fallback: %v", cat, err)
		default:
			log.Printf("engine: retrieval failed for %s, using fallback: %v", cat, err)
		}
		return e.fallbackAnswer(cat, query, nil)
	}

	if e.provider == nil {
		return e.fallbackAnswer(cat, query, results)
	}

	history, err := e.sessions.Recent(ctx, sessionID, e.cfg.Session.ContextTurns)
	if err != nil {
		log.Printf("engine: loading history for session %s: %v", sessionID, err)
		history = nil
	}

	generated, err := e.generate(ctx, cat, query, results, history)
	if err != nil {
		log.Printf("engine: generation failed for %s, using fallback: %v", cat, err)
		return e.fallbackAnswer(cat, query, results)
	}

	if !acceptable(generated) {
		log.Printf("engine: rejected generated answer for %s, using fallback", cat)
		return e.fallbackAnswer(cat, query, results)
	}

	return &Answer{
		Text:      strings.TrimSpace(generated),
		Source:    session.SourceGenerated,
		Grounding: results,
	}
}

// retrieve embeds the query and returns the top-k scored passages for the
// category, sorted descending by score.
func (e *Engine) retrieve(ctx context.Context, cat category.Category, query string) ([]vectordb.Result, error) {
	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector", embeddings.ErrUnavailable)
	}

	return e.store.Query(ctx, cat, vecs[0], e.cfg.Retrieval.TopK)
}

// generate invokes the completion service under the configured timeout.
func (e *Engine) generate(ctx context.Context, cat category.Category, query string, results []vectordb.Result, history []session.Turn) (string, error) {
	timeout := time.Duration(e.cfg.Generation.TimeoutSecs) * time.Second
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := buildPrompt(cat, query, results, history, e.cfg.Retrieval.ContextBudget)

	resp, err := e.provider.Complete(genCtx, llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   e.cfg.Generation.MaxTokens,
		Temperature: e.cfg.Generation.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// fallbackAnswer resolves a query through the curated table: a matched
// canonical answer when one clears the threshold, the category's canned
// response otherwise. This path always produces a non-empty answer.
func (e *Engine) fallbackAnswer(cat category.Category, query string, grounding []vectordb.Result) *Answer {
	if m, ok := e.matcher.Match(cat, query); ok {
		return &Answer{
			Text:      m.Answer,
			Source:    session.SourceFallbackMatched,
			Grounding: grounding,
		}
	}
	return &Answer{
		Text:      e.matcher.DefaultAnswer(cat),
		Source:    session.SourceFallbackDefault,
		Grounding: grounding,
	}
}

// Search exposes bare retrieval: the top-k scored passages for a query in
// one category, without generation. Used by the agent tool surface.
func (e *Engine) Search(ctx context.Context, categoryName, query string, k int) ([]vectordb.Result, error) {
	cat, err := e.registry.Resolve(categoryName)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = e.cfg.Retrieval.TopK
	}

	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector", embeddings.ErrUnavailable)
	}
	return e.store.Query(ctx, cat, vecs[0], k)
}

// ExportHistory returns the session's conversation in chronological order.
// Read-only; no side effects.
func (e *Engine) ExportHistory(ctx context.Context, sessionID string) ([]session.Turn, error) {
	return e.sessions.Export(ctx, sessionID)
}
