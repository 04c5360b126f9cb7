package rag

import (
	"math"
	"sort"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

// Hit is one nearest-neighbour result.
type Hit struct {
	ChunkID int
	Score   float32
}

// Index answers top-k similarity queries over one transcript's chunk vectors.
type Index interface {
	Search(query []float32, k int) ([]Hit, error)
	Len() int
	Dim() int
}

// FlatIndex is an exhaustive inner-product index over L2-normalised vectors,
// which makes its scores cosine similarities.
type FlatIndex struct {
	dim     int
	ids     []int
	vectors [][]float32
}

// BuildFlatIndex normalises every chunk vector once. All chunks must be
// embedded and share one dimension.
func BuildFlatIndex(chunks []model.Chunk) (*FlatIndex, error) {
	idx := &FlatIndex{
		ids:     make([]int, 0, len(chunks)),
		vectors: make([][]float32, 0, len(chunks)),
	}
	for _, c := range chunks {
		if !c.Embedded() {
			return nil, apperr.Newf(apperr.KindInvalidInput, "chunk %d has no vector", c.ID)
		}
		if idx.dim == 0 {
			idx.dim = len(c.Vector)
		} else if len(c.Vector) != idx.dim {
			return nil, apperr.Newf(apperr.KindDimensionMismatch, "chunk %d has dimension %d, index has %d", c.ID, len(c.Vector), idx.dim)
		}
		idx.ids = append(idx.ids, c.ID)
		idx.vectors = append(idx.vectors, normalize(c.Vector))
	}
	return idx, nil
}

func (f *FlatIndex) Len() int { return len(f.ids) }

func (f *FlatIndex) Dim() int { return f.dim }

// Search returns at most k hits by descending score; equal scores rank the
// lower chunk id first.
func (f *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, apperr.Newf(apperr.KindInvalidInput, "k must be positive, got %d", k)
	}
	if len(f.ids) == 0 {
		return []Hit{}, nil
	}
	if len(query) != f.dim {
		return nil, apperr.Newf(apperr.KindDimensionMismatch, "query has dimension %d, index has %d", len(query), f.dim)
	}

	q := normalize(query)
	hits := make([]Hit, len(f.ids))
	for i, v := range f.vectors {
		hits[i] = Hit{ChunkID: f.ids[i], Score: dot(q, v)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize returns a unit-length copy of v. A zero vector stays zero and
// scores 0 against everything.
func normalize(v []float32) []float32 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sq == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sq)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
