package transcript

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Source returns the caption text of one video. Failures are NotFound,
// CaptionsDisabled or NetworkError.
type Source interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, videoID string) (string, bool, error)
	Set(ctx context.Context, videoID, text string) error
}

// CachedSource consults the cache before the wrapped source. Cache errors
// are logged and otherwise ignored.
type CachedSource struct {
	inner Source
	cache Cache
}

func NewCachedSource(inner Source, cache Cache) *CachedSource {
	return &CachedSource{inner: inner, cache: cache}
}

func (s *CachedSource) Fetch(ctx context.Context, videoID string) (string, error) {
	text, ok, err := s.cache.Get(ctx, videoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("transcript cache read failed")
	}
	if ok && text != "" {
		return text, nil
	}

	text, err = s.inner.Fetch(ctx, videoID)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, videoID, text); err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("transcript cache write failed")
	}
	return text, nil
}
