package ai

import (
	"context"
	"strings"

	"gopherai-ytchat/internal/pkg/apperr"
)

const DefaultEmbeddingBatchSize = 10

// Embedder is the provider-agnostic embedding gateway. A call either
// returns one vector per input, all of one dimension, or fails whole.
type Embedder struct {
	provider  EmbeddingProvider
	caller    *caller
	batchSize int
}

func NewEmbedder(provider EmbeddingProvider, cfg GatewayConfig, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &Embedder{
		provider:  provider,
		caller:    newCaller(cfg),
		batchSize: batchSize,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, apperr.Newf(apperr.KindInvalidInput, "text %d is empty", i)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		var vectors [][]float32
		err := e.caller.do(ctx, e.provider.Name(), "embed", func(ctx context.Context) error {
			v, err := e.provider.EmbedBatch(ctx, batch)
			if err != nil {
				return err
			}
			vectors = v
			return nil
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.KindEmbeddingUnavailable, "embedding provider failed", err)
		}
		if len(vectors) != len(batch) {
			return nil, apperr.Newf(apperr.KindEmbeddingUnavailable, "provider returned %d vectors for %d texts", len(vectors), len(batch))
		}
		out = append(out, vectors...)
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) == 0 {
			return nil, apperr.Newf(apperr.KindEmbeddingUnavailable, "provider returned an empty vector for text %d", i)
		}
		if len(v) != dim {
			return nil, apperr.Newf(apperr.KindDimensionMismatch, "vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return out, nil
}
