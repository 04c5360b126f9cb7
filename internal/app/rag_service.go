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

type LoadInput struct {
	SessionID  string
	VideoID    string
	Transcript string
}

type LoadVideoInput struct {
	SessionID  string
	YouTubeURL string
}

type LoadOutput struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
	Length     int    `json:"length"`
	ChunkCount int    `json:"chunk_count"`
	Preview    string `json:"transcript_preview"`
}

// LoadVideo resolves the video id from a URL, fetches its captions and
// loads them into the session.
func (s *TranscriptChatService) LoadVideo(ctx context.Context, input LoadVideoInput) Result[*LoadOutput] {
	const op = "load_video"
	started := time.Now()

	videoID, err := transcript.ExtractVideoID(input.YouTubeURL)
	if err != nil {
		return fail[*LoadOutput](op, input.SessionID, started, err)
	}
	if s.source == nil {
		return fail[*LoadOutput](op, input.SessionID, started, apperr.New(apperr.KindInternal, "no transcript source configured"))
	}
	text, err := s.source.Fetch(ctx, videoID)
	if err != nil {
		return fail[*LoadOutput](op, input.SessionID, started, err)
	}
	metrics.ObserveOperation(op, "ok", started)
	return s.LoadTranscript(ctx, LoadInput{SessionID: input.SessionID, VideoID: videoID, Transcript: text})
}

// LoadTranscript chunks, embeds and indexes text, then replaces the
// session state wholesale. A failure at any step leaves the session as it
// was. Concurrent loads commit in lock order; the last one wins.
func (s *TranscriptChatService) LoadTranscript(ctx context.Context, input LoadInput) Result[*LoadOutput] {
	const op = "load_transcript"
	started := time.Now()

	sess, err := s.lookup(input.SessionID)
	if err != nil {
		return fail[*LoadOutput](op, input.SessionID, started, err)
	}
	videoID := strings.TrimSpace(input.VideoID)
	if videoID == "" {
		return fail[*LoadOutput](op, input.SessionID, started, apperr.New(apperr.KindInvalidInput, "video id is empty"))
	}
	if strings.TrimSpace(input.Transcript) == "" {
		return fail[*LoadOutput](op, input.SessionID, started, apperr.New(apperr.KindInvalidInput, "transcript is empty"))
	}

	var out *LoadOutput
	err = sess.Update(func(cur session.State) (session.State, error) {
		corpus, err := s.buildCorpus(ctx, videoID, input.Transcript)
		if err != nil {
			return cur, err
		}
		if cur.Keywords != nil {
			if err := cur.Keywords.Close(); err != nil {
				log.Warn().Err(err).Str("session_id", input.SessionID).Msg("close previous keyword index failed")
			}
		}

		t := corpus.Transcript
		out = &LoadOutput{
			VideoID:    t.VideoID,
			Transcript: t.Text,
			Length:     t.Length(),
			ChunkCount: len(corpus.Chunks),
			Preview:    t.Preview(s.opts.PreviewChars),
		}
		return session.State{Corpus: *corpus}, nil
	})
	if err != nil {
		return fail[*LoadOutput](op, input.SessionID, started, err)
	}

	metrics.ObserveOperation(op, "ok", started)
	log.Info().Str("op", op).Str("session_id", input.SessionID).Str("video_id", videoID).
		Int("length", out.Length).Int("chunks", out.ChunkCount).Dur("took", time.Since(started)).Msg("transcript loaded")
	return Ok(out)
}

func (s *TranscriptChatService) buildCorpus(ctx context.Context, videoID, text string) (*rag.Corpus, error) {
	chunks, err := rag.ChunkTranscript(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, apperr.Newf(apperr.KindEmbeddingUnavailable, "embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	index, err := rag.BuildFlatIndex(chunks)
	if err != nil {
		return nil, err
	}

	corpus := &rag.Corpus{
		Transcript: &model.Transcript{VideoID: videoID, Text: text, LoadedAt: time.Now()},
		Chunks:     chunks,
		Index:      index,
	}
	if s.opts.KeywordFallback {
		keywords, err := rag.BuildKeywordIndex(chunks)
		if err != nil {
			log.Warn().Err(err).Str("video_id", videoID).Msg("build keyword index failed, fallback disabled for this video")
		} else {
			corpus.Keywords = keywords
		}
	}
	return corpus, nil
}
