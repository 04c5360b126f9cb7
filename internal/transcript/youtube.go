package transcript

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/kkdai/youtube/v2"

	"gopherai-ytchat/internal/pkg/apperr"
)

type YouTubeConfig struct {
	Languages  []string
	Timeout    time.Duration
	MaxRetries int
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// YouTubeSource reads caption tracks through the innertube player and
// transcript endpoints.
type YouTubeSource struct {
	languages  []string
	maxRetries int
	httpClient *http.Client
}

func NewYouTubeSource(cfg YouTubeConfig) *YouTubeSource {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &YouTubeSource{
		languages:  cfg.Languages,
		maxRetries: cfg.MaxRetries,
		httpClient: cfg.HTTPClient,
	}
}

func (s *YouTubeSource) Fetch(ctx context.Context, videoID string) (string, error) {
	if !videoIDPattern.MatchString(videoID) {
		return "", apperr.Newf(apperr.KindInvalidInput, "invalid video id %q", videoID)
	}

	// youtube.Client switches its innertube profile on age-gated videos,
	// so each fetch gets its own.
	client := &youtube.Client{HTTPClient: s.httpClient}

	video, err := retry(ctx, s.maxRetries, apperr.KindNotFound, func() (*youtube.Video, error) {
		return client.GetVideoContext(ctx, videoID)
	})
	if err != nil {
		return "", err
	}
	if len(video.CaptionTracks) == 0 {
		return "", apperr.Newf(apperr.KindCaptionsDisabled, "video %s has no captions", videoID)
	}

	lang := s.pickLanguage(video.CaptionTracks)
	segments, err := retry(ctx, s.maxRetries, apperr.KindCaptionsDisabled, func() (youtube.VideoTranscript, error) {
		return client.GetTranscriptCtx(ctx, video, lang)
	})
	if err != nil {
		return "", err
	}

	text := joinSegments(segments)
	if text == "" {
		return "", apperr.Newf(apperr.KindCaptionsDisabled, "caption track for %s is empty", videoID)
	}
	return text, nil
}

// pickLanguage prefers the configured languages in order, then the first
// listed track.
func (s *YouTubeSource) pickLanguage(tracks []youtube.CaptionTrack) string {
	for _, lang := range s.languages {
		for _, t := range tracks {
			if strings.EqualFold(t.LanguageCode, lang) {
				return t.LanguageCode
			}
		}
	}
	return tracks[0].LanguageCode
}

// retry runs fetch with backoff. rejected is the kind reported when
// YouTube answers 400 or 403.
func retry[T any](ctx context.Context, maxRetries int, rejected apperr.Kind, fetch func() (T, error)) (T, error) {
	operation := func() (T, error) {
		v, err := fetch()
		if err != nil {
			classified := classifyYouTubeError(err, rejected)
			if apperr.KindOf(classified) != apperr.KindNetworkError {
				return v, backoff.Permanent(classified)
			}
			return v, classified
		}
		return v, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(maxRetries+1)),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		var classified *apperr.Error
		if !errors.As(err, &classified) {
			err = apperr.Wrap(apperr.KindNetworkError, "youtube fetch aborted", err)
		}
		return v, err
	}
	return v, nil
}

// classifyYouTubeError maps library errors onto fetch failure kinds.
// Only NetworkError results are retried.
func classifyYouTubeError(err error, rejected apperr.Kind) error {
	var status youtube.ErrUnexpectedStatusCode
	var playability *youtube.ErrPlayabiltyStatus
	switch {
	case errors.Is(err, youtube.ErrTranscriptDisabled):
		return apperr.Wrap(apperr.KindCaptionsDisabled, "captions are not available for this video", err)
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed),
		errors.As(err, &playability):
		return apperr.Wrap(apperr.KindNotFound, "video is unavailable", err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return apperr.Wrap(apperr.KindInvalidInput, "invalid video id", err)
	case errors.As(err, &status):
		switch {
		case status == http.StatusNotFound:
			return apperr.Wrap(apperr.KindNotFound, "video or caption track not found", err)
		case status == http.StatusTooManyRequests || status >= 500:
			return apperr.Wrap(apperr.KindNetworkError, "youtube request failed", err)
		case status == http.StatusBadRequest || status == http.StatusForbidden:
			return apperr.Wrap(rejected, "youtube rejected the request", err)
		}
	}
	return apperr.Wrap(apperr.KindNetworkError, "youtube request failed", err)
}

// joinSegments unescapes each caption line, collapses whitespace and joins
// the lines with single spaces.
func joinSegments(segments youtube.VideoTranscript) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := html.UnescapeString(seg.Text)
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
