package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and for the HTTP layer.
type Kind string

const (
	KindInvalidInput         Kind = "InvalidInput"
	KindNoTranscriptLoaded   Kind = "NoTranscriptLoaded"
	KindEmbeddingUnavailable Kind = "EmbeddingUnavailable"
	KindDimensionMismatch    Kind = "DimensionMismatch"
	KindPromptTooLarge       Kind = "PromptTooLarge"
	KindProviderError        Kind = "ProviderError"
	KindRateLimited          Kind = "RateLimited"
	KindNetworkError         Kind = "NetworkError"
	KindNotFound             Kind = "NotFound"
	KindCaptionsDisabled     Kind = "CaptionsDisabled"
	KindSessionNotFound      Kind = "SessionNotFound"
	KindInternal             Kind = "Internal"
)

var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNoTranscriptLoaded   = &Error{Kind: KindNoTranscriptLoaded, Message: "no transcript loaded"}
	ErrEmbeddingUnavailable = &Error{Kind: KindEmbeddingUnavailable, Message: "embedding unavailable"}
	ErrDimensionMismatch    = &Error{Kind: KindDimensionMismatch, Message: "embedding dimension mismatch"}
	ErrPromptTooLarge       = &Error{Kind: KindPromptTooLarge, Message: "prompt does not fit the budget"}
	ErrProviderError        = &Error{Kind: KindProviderError, Message: "provider error"}
	ErrRateLimited          = &Error{Kind: KindRateLimited, Message: "rate limited"}
	ErrNetworkError         = &Error{Kind: KindNetworkError, Message: "network error"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrCaptionsDisabled     = &Error{Kind: KindCaptionsDisabled, Message: "captions disabled"}
	ErrSessionNotFound      = &Error{Kind: KindSessionNotFound, Message: "session not found"}
)

// Error is a classified failure. Two *Error values match under errors.Is
// when their kinds are equal, so the package-level sentinels work as
// targets regardless of message or cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or KindInternal when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether a failure is transient and worth another attempt.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetworkError, KindRateLimited:
		return true
	default:
		return false
	}
}
