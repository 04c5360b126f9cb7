package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/metrics"
	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

const DefaultTopK = 3

// Embedder maps texts to vectors, one per input and in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Corpus is the retrievable part of a session: one transcript, its chunks
// and the indexes built over them.
type Corpus struct {
	Transcript *model.Transcript
	Chunks     []model.Chunk
	Index      Index
	Keywords   *KeywordIndex
}

// Retrieved is a chunk with the score that selected it.
type Retrieved struct {
	Chunk model.Chunk
	Score float32
}

type Retriever struct {
	embedder        Embedder
	defaultK        int
	keywordFallback bool
}

func NewRetriever(embedder Embedder, defaultK int, keywordFallback bool) *Retriever {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &Retriever{
		embedder:        embedder,
		defaultK:        defaultK,
		keywordFallback: keywordFallback,
	}
}

// Retrieve returns up to k chunks most similar to question, best first.
// A non-positive k selects the configured default.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int, corpus *Corpus) ([]Retrieved, error) {
	if corpus == nil || corpus.Transcript == nil || corpus.Index == nil {
		return nil, apperr.ErrNoTranscriptLoaded
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "question is empty")
	}
	if k <= 0 {
		k = r.defaultK
	}

	hits, err := r.search(ctx, question, k, corpus)
	if err != nil {
		return nil, err
	}

	out := make([]Retrieved, 0, len(hits))
	seen := make(map[int]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ChunkID]; dup {
			continue
		}
		if h.ChunkID < 0 || h.ChunkID >= len(corpus.Chunks) {
			continue
		}
		seen[h.ChunkID] = struct{}{}
		out = append(out, Retrieved{Chunk: corpus.Chunks[h.ChunkID], Score: h.Score})
	}
	return out, nil
}

func (r *Retriever) search(ctx context.Context, question string, k int, corpus *Corpus) ([]Hit, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err == nil && len(vectors) != 1 {
		err = apperr.Newf(apperr.KindEmbeddingUnavailable, "expected 1 question vector, got %d", len(vectors))
	}
	if err != nil {
		if r.keywordFallback && corpus.Keywords != nil && errors.Is(err, apperr.ErrEmbeddingUnavailable) {
			log.Warn().Err(err).Msg("question embedding failed, using keyword fallback")
			metrics.KeywordFallbacksTotal.Inc()
			return corpus.Keywords.Search(question, k)
		}
		return nil, err
	}
	return corpus.Index.Search(vectors[0], k)
}
