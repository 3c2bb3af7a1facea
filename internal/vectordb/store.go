// Package vectordb owns one vector index per category. Indexes are caches:
// their content is always derivable by re-running ingestion, and rebuild is
// the only mutation path. A rebuild constructs a complete new index and
// swaps it in atomically, so concurrent readers observe either the old or
// the new index in full, never a partial one.
package vectordb

import (
	"context"
	"errors"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/chunker"
)

// ErrEmptyIndex reports a query against a category with zero indexed
// passages. Callers treat it as "no grounding available", not a crash.
var ErrEmptyIndex = errors.New("category index is empty")

// Result pairs an indexed passage with its similarity score.
type Result struct {
	Passage    chunker.Passage
	Similarity float32
}

// Store is the per-category index collection.
type Store interface {
	// Rebuild replaces the category's entire index with the given passages.
	// On failure the previous index remains valid and queryable.
	Rebuild(ctx context.Context, cat category.Category, passages []chunker.Passage) error

	// Query returns the k passages most similar to the query vector, sorted
	// descending by score with ties broken by insertion order. Returns
	// ErrEmptyIndex when the category has no passages.
	Query(ctx context.Context, cat category.Category, queryVec []float32, k int) ([]Result, error)

	// Count returns the number of passages indexed for the category.
	Count(cat category.Category) int

	// Load restores all category indexes from their persisted artifacts.
	// A missing artifact leaves that category empty; it is not an error.
	Load(ctx context.Context) error
}
