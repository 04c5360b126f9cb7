package rag

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

const petsTranscript = "Cats are mammals. Dogs are mammals too. Fish are not mammals."

func TestChunkTranscriptRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{name: "empty", text: "", size: 30, overlap: 5},
		{name: "whitespace only", text: " \n\t ", size: 30, overlap: 5},
		{name: "overlap equals size", text: "hello", size: 10, overlap: 10},
		{name: "overlap exceeds size", text: "hello", size: 10, overlap: 12},
		{name: "zero size", text: "hello", size: 0, overlap: 0},
		{name: "negative overlap", text: "hello", size: 10, overlap: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChunkTranscript(tt.text, tt.size, tt.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestChunkTranscriptPetsScenario(t *testing.T) {
	chunks, err := ChunkTranscript(petsTranscript, 30, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "Cats are mammals.", chunks[0].Text)
	assert.Equal(t, "mammals. Dogs are mammals too.", chunks[1].Text)
	assert.Equal(t, "too. Fish are not mammals.", chunks[2].Text)
	assertCoverage(t, petsTranscript, chunks)
}

func TestChunkTranscriptSingleChunk(t *testing.T) {
	chunks, err := ChunkTranscript("short text", 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 10, chunks[0].EndOffset)
}

func TestChunkTranscriptCoverage(t *testing.T) {
	inputs := []string{
		petsTranscript,
		strings.Repeat("word ", 400),
		strings.Repeat("a", 257),
		"so what do we do now? we go on! and then. it ends",
		"  leading and trailing whitespace  ",
		strings.Repeat("héllo wörld ünïcode ", 50),
		"a" + strings.Repeat(" ", 40) + "b",
		petsTranscript + strings.Repeat("\n", 60),
		strings.Repeat("\n", 45) + petsTranscript,
		"Cats are mammals." + strings.Repeat("\n \t", 25) + "Dogs are loyal.",
		"hello world. \n",
	}
	params := [][2]int{{30, 5}, {10, 0}, {64, 16}, {7, 6}, {200, 50}}

	for _, in := range inputs {
		for _, p := range params {
			chunks, err := ChunkTranscript(in, p[0], p[1])
			require.NoError(t, err)
			assertCoverage(t, in, chunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, len([]rune(strings.TrimSpace(c.Text))), p[0])
			}
		}
	}
}

func TestChunkTranscriptAbsorbsTrailingWhitespace(t *testing.T) {
	chunks, err := ChunkTranscript("hello world. \n", 12, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 14, chunks[0].EndOffset)

	text := petsTranscript + strings.Repeat("\n", 60)
	chunks, err = ChunkTranscript(text, 30, 5)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Text), "chunk %d holds only whitespace", c.ID)
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, "mammals.", strings.TrimSpace(last.Text))
	assert.Equal(t, len([]rune(text)), last.EndOffset)
}

func TestChunkTranscriptSkipsLongWhitespaceRuns(t *testing.T) {
	text := "Cats are mammals." + strings.Repeat("\n", 50) + "Dogs are loyal."
	for overlap, want := range map[int][]string{
		0: {"Cats are mammals.", "Dogs are loyal."},
		5: {"Cats are mammals.", "mammals.", "Dogs are loyal."},
	} {
		chunks, err := ChunkTranscript(text, 20, overlap)
		require.NoError(t, err)
		require.Len(t, chunks, len(want))
		for i, c := range chunks {
			assert.Equal(t, want[i], strings.TrimSpace(c.Text))
		}
		assertCoverage(t, text, chunks)
	}
}

func TestChunkTranscriptDeterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	first, err := ChunkTranscript(text, 120, 20)
	require.NoError(t, err)
	second, err := ChunkTranscript(text, 120, 20)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunkTranscriptAvoidsSplittingWords(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 40)
	chunks, err := ChunkTranscript(text, 50, 10)
	require.NoError(t, err)

	runes := []rune(text)
	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, unicode.IsSpace(runes[c.EndOffset]), "chunk %d ends mid-word: %q", c.ID, c.Text)
	}
	for _, c := range chunks[1:] {
		assert.True(t, unicode.IsSpace(runes[c.StartOffset-1]), "chunk %d starts mid-word: %q", c.ID, c.Text)
	}
}

func TestChunkTranscriptOverlapsConsecutiveChunks(t *testing.T) {
	text := strings.Repeat("one two three four five six seven eight nine ten ", 20)
	chunks, err := ChunkTranscript(text, 80, 20)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)
	for i := 1; i < len(chunks); i++ {
		overlap := chunks[i-1].EndOffset - chunks[i].StartOffset
		assert.Greater(t, overlap, 0)
		assert.Less(t, chunks[i-1].StartOffset, chunks[i].StartOffset)
	}
}

func assertCoverage(t *testing.T, text string, chunks []model.Chunk) {
	t.Helper()
	runes := []rune(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].EndOffset)
	for i, c := range chunks {
		assert.Equal(t, i, c.ID)
		assert.Less(t, c.StartOffset, c.EndOffset)
		assert.NotEmpty(t, strings.TrimSpace(c.Text), "chunk %d holds only whitespace", i)
		if i > 0 {
			assert.False(t, unicode.IsSpace(runes[c.StartOffset]), "chunk %d starts in whitespace", i)
		}
		assert.Equal(t, string(runes[c.StartOffset:c.EndOffset]), c.Text)
		if i > 0 {
			assert.LessOrEqual(t, c.StartOffset, chunks[i-1].EndOffset, "gap before chunk %d", i)
		}
	}
}
