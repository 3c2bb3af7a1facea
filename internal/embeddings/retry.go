package embeddings

import (
	"context"
	"fmt"
	"time"
)

// RetryEmbedder wraps an Embedder with a bounded retry policy: a failed
// call is retried up to maxRetries times with doubling backoff, and the
// final failure is reported as ErrUnavailable so callers can degrade
// gracefully instead of surfacing a transport error.
type RetryEmbedder struct {
	inner      Embedder
	maxRetries int
	baseDelay  time.Duration
}

// WithRetry wraps the given embedder. maxRetries counts additional
// attempts after the first; baseDelay is the initial backoff.
func WithRetry(inner Embedder, maxRetries int, baseDelay time.Duration) *RetryEmbedder {
	if baseDelay <= 0 {
		baseDelay = 250 * time.Millisecond
	}
	return &RetryEmbedder{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

func (r *RetryEmbedder) Name() string    { return r.inner.Name() }
func (r *RetryEmbedder) Dimensions() int { return r.inner.Dimensions() }

func (r *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	delay := r.baseDelay

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, err := r.inner.Embed(ctx, texts)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
