package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/metrics"
	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/pkg/apperr"
	"gopherai-ytchat/internal/rag"
	"gopherai-ytchat/internal/session"
	"gopherai-ytchat/internal/transcript"
)

const DefaultPreviewChars = 500

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TurnPublisher receives committed chat turns for archiving. It is
// optional and its failures never fail an operation.
type TurnPublisher interface {
	Publish(ctx context.Context, event model.TurnEvent) error
}

type Options struct {
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	PromptBudget    int
	MaxHistoryTurns int
	Instructions    string
	KeywordFallback bool
	PreviewChars    int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = rag.DefaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = min(rag.DefaultChunkOverlap, o.ChunkSize/10)
	}
	if o.TopK <= 0 {
		o.TopK = rag.DefaultTopK
	}
	if o.PromptBudget <= 0 {
		o.PromptBudget = rag.DefaultPromptBudget
	}
	if o.MaxHistoryTurns <= 0 {
		o.MaxHistoryTurns = rag.DefaultMaxHistoryTurns
	}
	if o.PreviewChars <= 0 {
		o.PreviewChars = DefaultPreviewChars
	}
	return o
}

// TranscriptChatService is the operation boundary for one-video chat
// sessions. Every method returns a Result; errors never escape.
type TranscriptChatService struct {
	store     *session.Store
	source    transcript.Source
	embedder  rag.Embedder
	generator Generator
	retriever *rag.Retriever
	assembler *rag.PromptAssembler
	publisher TurnPublisher
	opts      Options
}

func NewTranscriptChatService(
	store *session.Store,
	source transcript.Source,
	embedder rag.Embedder,
	generator Generator,
	publisher TurnPublisher,
	opts Options,
) *TranscriptChatService {
	opts = opts.withDefaults()
	return &TranscriptChatService{
		store:     store,
		source:    source,
		embedder:  embedder,
		generator: generator,
		retriever: rag.NewRetriever(embedder, opts.TopK, opts.KeywordFallback),
		assembler: rag.NewPromptAssembler(opts.Instructions, opts.MaxHistoryTurns),
		publisher: publisher,
		opts:      opts,
	}
}

type AskInput struct {
	SessionID string
	Question  string
	TopK      int
}

type Excerpt struct {
	ChunkID     int     `json:"chunk_id"`
	StartOffset int     `json:"start_offset"`
	EndOffset   int     `json:"end_offset"`
	Score       float32 `json:"score"`
	Text        string  `json:"text"`
}

type AskOutput struct {
	Answer   string    `json:"answer"`
	Excerpts []Excerpt `json:"excerpts"`
}

type ClearOutput struct {
	Cleared bool `json:"cleared"`
}

type StatusOutput struct {
	SessionID        string    `json:"session_id"`
	Loaded           bool      `json:"loaded"`
	VideoID          string    `json:"video_id,omitempty"`
	TranscriptLength int       `json:"transcript_length"`
	ChunkCount       int       `json:"chunk_count"`
	TurnCount        int       `json:"turn_count"`
	LoadedAt         time.Time `json:"loaded_at,omitempty"`
}

type HistoryOutput struct {
	VideoID string           `json:"video_id,omitempty"`
	Turns   []model.ChatTurn `json:"turns"`
}

// Ask answers a question from the loaded transcript. The user and
// assistant turns are appended together, only when the answer succeeds.
func (s *TranscriptChatService) Ask(ctx context.Context, input AskInput) Result[*AskOutput] {
	const op = "ask"
	started := time.Now()

	sess, err := s.lookup(input.SessionID)
	if err != nil {
		return fail[*AskOutput](op, input.SessionID, started, err)
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return fail[*AskOutput](op, input.SessionID, started, apperr.New(apperr.KindInvalidInput, "question is empty"))
	}

	var out *AskOutput
	var turns []model.ChatTurn
	var videoID string
	err = sess.Update(func(cur session.State) (session.State, error) {
		if !cur.Loaded() {
			return cur, apperr.ErrNoTranscriptLoaded
		}
		retrieved, err := s.retriever.Retrieve(ctx, question, input.TopK, &cur.Corpus)
		if err != nil {
			return cur, err
		}
		prompt, err := s.assembler.Assemble(question, retrieved, cur.History, s.opts.PromptBudget)
		if err != nil {
			return cur, err
		}
		answer, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return cur, err
		}

		asked := time.Now()
		turns = []model.ChatTurn{
			{Role: model.RoleUser, Text: question, Timestamp: asked},
			{Role: model.RoleAssistant, Text: answer, Timestamp: time.Now()},
		}
		next := cur
		next.History = make([]model.ChatTurn, 0, len(cur.History)+2)
		next.History = append(next.History, cur.History...)
		next.History = append(next.History, turns...)

		videoID = cur.Transcript.VideoID
		out = &AskOutput{Answer: answer, Excerpts: toExcerpts(retrieved)}
		return next, nil
	})
	if err != nil {
		return fail[*AskOutput](op, input.SessionID, started, err)
	}

	s.publishTurns(ctx, input.SessionID, videoID, turns)
	metrics.ObserveOperation(op, "ok", started)
	log.Info().Str("op", op).Str("session_id", input.SessionID).Int("excerpts", len(out.Excerpts)).Dur("took", time.Since(started)).Msg("question answered")
	return Ok(out)
}

// Clear empties the session. Clearing an empty session is a no-op.
func (s *TranscriptChatService) Clear(ctx context.Context, sessionID string) Result[*ClearOutput] {
	const op = "clear"
	started := time.Now()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return fail[*ClearOutput](op, sessionID, started, err)
	}
	err = sess.Update(func(cur session.State) (session.State, error) {
		if cur.Keywords != nil {
			if err := cur.Keywords.Close(); err != nil {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("close keyword index failed")
			}
		}
		return session.State{}, nil
	})
	if err != nil {
		return fail[*ClearOutput](op, sessionID, started, err)
	}
	metrics.ObserveOperation(op, "ok", started)
	return Ok(&ClearOutput{Cleared: true})
}

// Status reads the published view and never waits for a running operation.
func (s *TranscriptChatService) Status(sessionID string) Result[*StatusOutput] {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Fail[*StatusOutput](failureFrom("status", sessionID, err))
	}
	v := sess.View()
	return Ok(&StatusOutput{
		SessionID:        v.SessionID,
		Loaded:           v.Loaded,
		VideoID:          v.VideoID,
		TranscriptLength: v.TranscriptLength,
		ChunkCount:       v.ChunkCount,
		TurnCount:        len(v.History),
		LoadedAt:         v.LoadedAt,
	})
}

func (s *TranscriptChatService) History(sessionID string) Result[*HistoryOutput] {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Fail[*HistoryOutput](failureFrom("history", sessionID, err))
	}
	v := sess.View()
	turns := v.History
	if turns == nil {
		turns = []model.ChatTurn{}
	}
	return Ok(&HistoryOutput{VideoID: v.VideoID, Turns: turns})
}

func (s *TranscriptChatService) lookup(sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "session id is empty")
	}
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return nil, apperr.Newf(apperr.KindSessionNotFound, "session %s not found", sessionID)
	}
	return sess, nil
}

func fail[T any](op, sessionID string, started time.Time, err error) Result[T] {
	f := failureFrom(op, sessionID, err)
	metrics.ObserveOperation(op, string(f.Kind), started)
	return Fail[T](f)
}

func (s *TranscriptChatService) publishTurns(ctx context.Context, sessionID, videoID string, turns []model.ChatTurn) {
	if s.publisher == nil {
		return
	}
	for _, turn := range turns {
		event := model.TurnEvent{
			SessionID: sessionID,
			VideoID:   videoID,
			Role:      turn.Role,
			Text:      turn.Text,
			Timestamp: turn.Timestamp,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("publish chat turn failed")
		}
	}
}

func toExcerpts(retrieved []rag.Retrieved) []Excerpt {
	out := make([]Excerpt, len(retrieved))
	for i, r := range retrieved {
		out[i] = Excerpt{
			ChunkID:     r.Chunk.ID,
			StartOffset: r.Chunk.StartOffset,
			EndOffset:   r.Chunk.EndOffset,
			Score:       r.Score,
			Text:        r.Chunk.Text,
		}
	}
	return out
}
