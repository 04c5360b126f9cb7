package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnKind(t *testing.T) {
	err := Newf(KindInvalidInput, "question is empty")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrPromptTooLarge))

	wrapped := fmt.Errorf("ask failed: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidInput))
	assert.Equal(t, KindInvalidInput, KindOf(wrapped))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindNetworkError, "llm request failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "llm request failed: dial tcp: timeout", err.Error())
	assert.Nil(t, Wrap(KindNetworkError, "x", nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrNetworkError))
	assert.True(t, Retryable(fmt.Errorf("x: %w", ErrRateLimited)))
	assert.False(t, Retryable(ErrProviderError))
	assert.False(t, Retryable(errors.New("plain")))
}
