// Package embeddings turns text into vectors through an opaque embedding
// service. The service is a network dependency; callers that cannot tolerate
// transient failures wrap an Embedder with WithRetry.
package embeddings

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the embedding service could not be reached
// after the configured retries. The answering pipeline treats it as a signal
// to degrade to the fallback path, never as a user-visible error.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}
