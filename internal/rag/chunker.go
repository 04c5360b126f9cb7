package rag

import (
	"strings"
	"unicode"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// ChunkTranscript splits text into overlapping chunks of at most maxChunkChars
// runes of text. A chunk edge prefers a sentence end within maxChunkChars/2 of
// the hard limit, then any whitespace within maxChunkChars/4, and only cuts
// mid-word when neither exists. The next chunk starts overlapChars before the
// previous edge, pulled back to the start of the word it would otherwise cut.
// Every chunk starts with text: leading whitespace belongs to the first chunk,
// and a whitespace run the next chunk could not start past is absorbed into
// the chunk before it.
func ChunkTranscript(text string, maxChunkChars, overlapChars int) ([]model.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "transcript is empty")
	}
	if maxChunkChars <= 0 || overlapChars < 0 {
		return nil, apperr.Newf(apperr.KindInvalidInput, "invalid chunk size %d / overlap %d", maxChunkChars, overlapChars)
	}
	if overlapChars >= maxChunkChars {
		return nil, apperr.Newf(apperr.KindInvalidInput, "overlap %d must be smaller than chunk size %d", overlapChars, maxChunkChars)
	}

	runes := []rune(text)
	n := len(runes)
	wordWindow := max(1, maxChunkChars/4)
	sentenceWindow := max(1, maxChunkChars/2)

	var chunks []model.Chunk
	for start := 0; ; {
		core := skipSpace(runes, start)
		end, next := n, n
		if limit := core + maxChunkChars; limit < n {
			end = chunkEnd(runes, core, limit, overlapChars, sentenceWindow, wordWindow)
			next = nextStart(runes, core, end, overlapChars, wordWindow)
			if next >= end {
				end = skipSpace(runes, end)
				next = end
			}
		}
		chunks = append(chunks, model.Chunk{
			ID:          len(chunks),
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})
		if end == n {
			break
		}
		start = next
	}
	return chunks, nil
}

// chunkEnd picks an exclusive end in (start+overlap, limit]. Keeping the end
// past start+overlap guarantees the following chunk starts after this one.
func chunkEnd(runes []rune, start, limit, overlap, sentenceWindow, wordWindow int) int {
	floor := start + overlap
	for i := limit; i > max(floor, limit-sentenceWindow); i-- {
		if unicode.IsSpace(runes[i]) && isSentenceEnd(runes[i-1]) {
			return i
		}
	}
	for i := limit; i > max(floor, limit-wordWindow); i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return limit
}

func nextStart(runes []rune, start, end, overlap, wordWindow int) int {
	next := end - overlap
	if !unicode.IsSpace(runes[next]) {
		for j := next; j > max(start, next-wordWindow); j-- {
			if unicode.IsSpace(runes[j-1]) {
				next = j
				break
			}
		}
	}
	for next < end && unicode.IsSpace(runes[next]) {
		next++
	}
	return next
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
