package rag

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

// KeywordIndex is a BM25-style full-text index over one transcript's chunks,
// used only when keyword fallback is switched on in config.
type KeywordIndex struct {
	index bleve.Index
	size  int
}

type keywordDoc struct {
	Text string `json:"text"`
}

func BuildKeywordIndex(chunks []model.Chunk) (*KeywordIndex, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index failed: %w", err)
	}
	batch := index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(strconv.Itoa(c.ID), keywordDoc{Text: c.Text}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index chunk %d failed: %w", c.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("commit keyword index failed: %w", err)
	}
	return &KeywordIndex{index: index, size: len(chunks)}, nil
}

// Search runs a match query and returns at most k hits, best first.
func (k *KeywordIndex) Search(question string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, apperr.Newf(apperr.KindInvalidInput, "k must be positive, got %d", limit)
	}
	if k.size == 0 {
		return []Hit{}, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(question), limit, 0, false)
	res, err := k.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ChunkID: id, Score: float32(h.Score)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}

func (k *KeywordIndex) Close() error {
	if k == nil || k.index == nil {
		return nil
	}
	return k.index.Close()
}
