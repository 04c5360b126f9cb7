package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/model"
)

func TestKeywordIndexFindsMatchingChunk(t *testing.T) {
	chunks := []model.Chunk{
		{ID: 0, Text: "the weather today is sunny"},
		{ID: 1, Text: "volcanoes erupt when magma rises"},
		{ID: 2, Text: "the stock market closed higher"},
	}
	idx, err := BuildKeywordIndex(chunks)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search("why do volcanoes erupt?", 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, 1, hits[0].ChunkID)
}

func TestKeywordIndexEmpty(t *testing.T) {
	idx, err := BuildKeywordIndex(nil)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search("anything", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
