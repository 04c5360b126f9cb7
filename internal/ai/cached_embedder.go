package ai

import (
	"context"

	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/metrics"
	"gopherai-ytchat/internal/pkg/apperr"
)

type TextEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache stores embeddings per (model, text). GetVectors returns a
// slice aligned with texts where misses are nil.
type VectorCache interface {
	GetVectors(ctx context.Context, model string, texts []string) ([][]float32, error)
	SetVectors(ctx context.Context, model string, texts []string, vectors [][]float32) error
}

// CachedEmbedder serves repeated texts from a VectorCache. Cache failures
// degrade to a direct embedding call.
type CachedEmbedder struct {
	inner TextEmbedder
	cache VectorCache
	model string
}

func NewCachedEmbedder(inner TextEmbedder, cache VectorCache, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache, model: model}
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	cached, err := c.cache.GetVectors(ctx, c.model, texts)
	if err != nil || len(cached) != len(texts) {
		if err != nil {
			log.Warn().Err(err).Msg("embedding cache read failed")
		}
		cached = make([][]float32, len(texts))
	}

	var missTexts []string
	var missIdx []int
	for i, v := range cached {
		if len(v) == 0 {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues("embedding", "hit").Add(float64(len(texts) - len(missTexts)))
	metrics.CacheLookupsTotal.WithLabelValues("embedding", "miss").Add(float64(len(missTexts)))

	if len(missTexts) > 0 {
		fresh, err := c.inner.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, apperr.Newf(apperr.KindEmbeddingUnavailable, "embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
		}
		for j, i := range missIdx {
			cached[i] = fresh[j]
		}
		if err := c.cache.SetVectors(ctx, c.model, missTexts, fresh); err != nil {
			log.Warn().Err(err).Msg("embedding cache write failed")
		}
	}

	dim := len(cached[0])
	for i, v := range cached {
		if len(v) != dim {
			return nil, apperr.Newf(apperr.KindDimensionMismatch, "vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return cached, nil
}
