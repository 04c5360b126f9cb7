package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/pkg/apperr"
)

// Failure is what a caller sees of a failed operation: the kind and a
// message safe to show a user.
type Failure struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// Result carries either a payload or a Failure, never both.
type Result[T any] struct {
	value   T
	failure *Failure
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Fail[T any](f *Failure) Result[T] {
	return Result[T]{failure: f}
}

func (r Result[T]) Unwrap() (T, *Failure) {
	return r.value, r.failure
}

func (r Result[T]) Failed() bool {
	return r.failure != nil
}

const retryLaterMessage = "The AI service is temporarily unavailable. Please try again in a moment."

// failureFrom converts an operation error into a Failure and logs it at a
// level matching the kind.
func failureFrom(op, sessionID string, err error) *Failure {
	kind := apperr.KindOf(err)
	message := err.Error()
	var classified *apperr.Error
	if errors.As(err, &classified) {
		message = classified.Message
	}

	event := log.Warn()
	switch kind {
	case apperr.KindInvalidInput:
	case apperr.KindNoTranscriptLoaded:
		message = "No video transcript is loaded yet. Load a YouTube video first, then ask your question."
	case apperr.KindNotFound:
		message = "No captions were found for this video. Check the URL and try again."
	case apperr.KindCaptionsDisabled:
		message = "Captions are disabled or unavailable for this video."
	case apperr.KindSessionNotFound:
		message = "Your session has expired. Load the video again to start a new session."
	case apperr.KindEmbeddingUnavailable, apperr.KindProviderError, apperr.KindRateLimited, apperr.KindNetworkError:
		message = retryLaterMessage
	case apperr.KindDimensionMismatch, apperr.KindPromptTooLarge:
		event = log.Error()
		if kind == apperr.KindPromptTooLarge {
			message = "The question is too long to answer within the configured prompt size. Please shorten it."
		} else {
			message = "The embedding configuration is inconsistent. Please reload the video."
		}
	default:
		event = log.Error()
		message = "Something went wrong. Please try again."
	}

	event.Err(err).Str("op", op).Str("session_id", sessionID).Str("kind", string(kind)).Msg("operation failed")
	return &Failure{Kind: kind, Message: message}
}
