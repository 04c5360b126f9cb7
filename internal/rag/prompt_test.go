package rag

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

func retrieved(id, start int, text string, score float32) Retrieved {
	return Retrieved{
		Chunk: model.Chunk{ID: id, Text: text, StartOffset: start, EndOffset: start + utf8.RuneCountInString(text)},
		Score: score,
	}
}

func turns(texts ...string) []model.ChatTurn {
	out := make([]model.ChatTurn, len(texts))
	for i, text := range texts {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		out[i] = model.ChatTurn{Role: role, Text: text, Timestamp: time.Unix(int64(i), 0)}
	}
	return out
}

func TestAssembleSectionOrder(t *testing.T) {
	a := NewPromptAssembler("", 6)
	prompt, err := a.Assemble("Are dogs mammals?",
		[]Retrieved{retrieved(1, 9, "mammals. Dogs are mammals too.", 0.9)},
		turns("hi", "hello"),
		10000,
	)
	require.NoError(t, err)

	instr := strings.Index(prompt, "## Instructions")
	excerpts := strings.Index(prompt, "## Transcript excerpts")
	history := strings.Index(prompt, "## Conversation history")
	question := strings.Index(prompt, "## Question")
	require.True(t, instr >= 0 && excerpts >= 0 && history >= 0 && question >= 0)
	assert.Less(t, instr, excerpts)
	assert.Less(t, excerpts, history)
	assert.Less(t, history, question)

	excerptSection := prompt[excerpts:history]
	assert.Contains(t, excerptSection, "Dogs are mammals too.")
	assert.True(t, strings.HasSuffix(prompt, "Are dogs mammals?\n"))
}

func TestAssembleOrdersExcerptsByOffset(t *testing.T) {
	a := NewPromptAssembler("", 0)
	prompt, err := a.Assemble("q",
		[]Retrieved{
			retrieved(2, 40, "third passage", 0.9),
			retrieved(0, 0, "first passage", 0.5),
			retrieved(1, 20, "second passage", 0.7),
		},
		nil, 10000)
	require.NoError(t, err)

	first := strings.Index(prompt, "first passage")
	second := strings.Index(prompt, "second passage")
	third := strings.Index(prompt, "third passage")
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.NotContains(t, prompt, "## Conversation history")
}

func TestAssembleDropsLowestScoreFirst(t *testing.T) {
	a := NewPromptAssembler("", 0)
	chunks := []Retrieved{
		retrieved(0, 0, strings.Repeat("a", 100), 0.2),
		retrieved(1, 100, strings.Repeat("b", 100), 0.9),
		retrieved(2, 200, strings.Repeat("c", 100), 0.5),
	}
	full, err := a.Assemble("q", chunks, nil, 100000)
	require.NoError(t, err)

	budget := utf8.RuneCountInString(full) - 50
	prompt, err := a.Assemble("q", chunks, nil, budget)
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(prompt), budget)
	assert.Contains(t, prompt, strings.Repeat("b", 100))
	assert.Contains(t, prompt, strings.Repeat("c", 100))
	assert.NotContains(t, prompt, strings.Repeat("a", 100))
}

func TestAssembleKeepsNewestHistory(t *testing.T) {
	a := NewPromptAssembler("", 10)
	history := turns("oldest question", "oldest answer", "newer question", "newer answer")

	withAll, err := a.Assemble("q", nil, history, 100000)
	require.NoError(t, err)
	assert.Contains(t, withAll, "oldest question")

	budget := utf8.RuneCountInString(withAll) - 5
	prompt, err := a.Assemble("q", nil, history, budget)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "oldest question")
	assert.Contains(t, prompt, "User: newer question")
	assert.Contains(t, prompt, "Assistant: newer answer")
	assert.Less(t, strings.Index(prompt, "oldest answer"), strings.Index(prompt, "newer question"))
}

func TestAssembleCapsHistoryTurns(t *testing.T) {
	a := NewPromptAssembler("", 2)
	prompt, err := a.Assemble("q", nil, turns("t1", "t2", "t3", "t4"), 100000)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "t1")
	assert.NotContains(t, prompt, "t2")
	assert.Contains(t, prompt, "User: t3")
	assert.Contains(t, prompt, "Assistant: t4")
}

func TestAssemblePrefersExcerptsOverHistory(t *testing.T) {
	a := NewPromptAssembler("", 6)
	chunk := retrieved(0, 0, strings.Repeat("x", 200), 0.8)
	onlyChunk, err := a.Assemble("q", []Retrieved{chunk}, nil, 100000)
	require.NoError(t, err)

	prompt, err := a.Assemble("q", []Retrieved{chunk}, turns(strings.Repeat("h", 50)), utf8.RuneCountInString(onlyChunk)+10)
	require.NoError(t, err)
	assert.Contains(t, prompt, strings.Repeat("x", 200))
	assert.NotContains(t, prompt, "## Conversation history")
}

func TestAssemblePromptTooLarge(t *testing.T) {
	a := NewPromptAssembler("", 6)
	question := "What exactly happens at the end of the video?"
	_, err := a.Assemble(question, []Retrieved{retrieved(0, 0, "text", 1)}, nil, 40)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrPromptTooLarge)
}

func TestAssembleNeverTruncatesQuestion(t *testing.T) {
	a := NewPromptAssembler("", 6)
	question := strings.Repeat("why ", 30) + "?"
	minimal, err := a.Assemble(question, nil, nil, 100000)
	require.NoError(t, err)

	prompt, err := a.Assemble(question, []Retrieved{retrieved(0, 0, "some excerpt", 1)}, turns("a", "b"), utf8.RuneCountInString(minimal))
	require.NoError(t, err)
	assert.Contains(t, prompt, strings.TrimSpace(question))
	assert.Equal(t, minimal, prompt)
}

func TestAssembleInvalidInput(t *testing.T) {
	a := NewPromptAssembler("", 6)
	_, err := a.Assemble("  ", nil, nil, 1000)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = a.Assemble("q", nil, nil, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
