package vectorstore

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/time/rate"
)

// NewEmbeddingFunc creates a chromem-go EmbeddingFunc from a Genkit
// ai.Embedder.
//
// Note: chromem-go normalizes vectors itself, so no manual
// normalization is needed.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{
				ai.DocumentFromText(text, nil),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return resp.Embeddings[0].Embedding, nil
	}
}

// WithRateLimit wraps an EmbeddingFunc so each call first waits on the
// limiter. Bulk ingestion uses this to stay under provider quotas;
// single query embeddings pass through the same limiter and are
// effectively unthrottled in practice.
func WithRateLimit(fn chromem.EmbeddingFunc, limiter *rate.Limiter) chromem.EmbeddingFunc {
	if limiter == nil {
		return fn
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for embed rate limiter: %w", err)
		}
		return fn(ctx, text)
	}
}
