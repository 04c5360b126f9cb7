package rag

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
)

const (
	DefaultPromptBudget    = 12000
	DefaultMaxHistoryTurns = 6

	defaultInstructions = "You are a helpful assistant that answers questions about a YouTube video using only the transcript excerpts below. " +
		"If the excerpts do not contain the answer, say that the transcript does not cover it. " +
		"Do not make up facts. Keep answers concise and cite the excerpts you used, e.g. [excerpt 2]."
)

// PromptAssembler renders the prompt sections in a fixed order: instructions,
// transcript excerpts, conversation history, question. The history section is
// left out when no turn is included.
type PromptAssembler struct {
	instructions    string
	maxHistoryTurns int
}

func NewPromptAssembler(instructions string, maxHistoryTurns int) *PromptAssembler {
	if strings.TrimSpace(instructions) == "" {
		instructions = defaultInstructions
	}
	if maxHistoryTurns < 0 {
		maxHistoryTurns = 0
	}
	return &PromptAssembler{
		instructions:    instructions,
		maxHistoryTurns: maxHistoryTurns,
	}
}

// Assemble fits the prompt into budget characters. The question and the
// instruction header are reserved first; excerpts are admitted best-score
// first and history newest-first, whole turns only.
func (a *PromptAssembler) Assemble(question string, retrieved []Retrieved, history []model.ChatTurn, budget int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperr.New(apperr.KindInvalidInput, "question is empty")
	}
	if budget <= 0 {
		return "", apperr.Newf(apperr.KindInvalidInput, "prompt budget must be positive, got %d", budget)
	}

	minimal := a.render(question, nil, nil)
	if size := utf8.RuneCountInString(minimal); size > budget {
		return "", apperr.Newf(apperr.KindPromptTooLarge, "question and instructions need %d characters, budget is %d", size, budget)
	}

	ranked := make([]Retrieved, len(retrieved))
	copy(ranked, retrieved)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Chunk.ID < ranked[j].Chunk.ID
	})

	excerpts := ranked
	prompt := a.render(question, excerpts, nil)
	for len(excerpts) > 0 && utf8.RuneCountInString(prompt) > budget {
		excerpts = excerpts[:len(excerpts)-1]
		prompt = a.render(question, excerpts, nil)
	}

	limit := min(a.maxHistoryTurns, len(history))
	for n := 1; n <= limit; n++ {
		candidate := a.render(question, excerpts, history[len(history)-n:])
		if utf8.RuneCountInString(candidate) > budget {
			break
		}
		prompt = candidate
	}
	return prompt, nil
}

func (a *PromptAssembler) render(question string, excerpts []Retrieved, history []model.ChatTurn) string {
	var b strings.Builder

	b.WriteString("## Instructions\n")
	b.WriteString(a.instructions)
	b.WriteString("\n\n## Transcript excerpts\n")
	if len(excerpts) == 0 {
		b.WriteString("(none)\n")
	} else {
		ordered := make([]Retrieved, len(excerpts))
		copy(ordered, excerpts)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Chunk.StartOffset < ordered[j].Chunk.StartOffset
		})
		for i, r := range ordered {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[excerpt %d] (characters %d-%d)\n%s\n", i+1, r.Chunk.StartOffset, r.Chunk.EndOffset, strings.TrimSpace(r.Chunk.Text))
		}
	}

	if len(history) > 0 {
		b.WriteString("\n## Conversation history\n")
		for _, turn := range history {
			b.WriteString(roleLabel(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Text)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## Question\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

func roleLabel(role model.Role) string {
	if role == model.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
