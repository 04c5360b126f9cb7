package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/pkg/apperr"
)

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"dQw4w9WgXcQ": "dQw4w9WgXcQ",

		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":                "dQw4w9WgXcQ",
		"https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42": "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ":                  "dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ":                            "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=abc":                        "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":                  "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":                 "dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ?feature=share":     "dQw4w9WgXcQ",
		"  https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ  ":     "dQw4w9WgXcQ",
	}
	for in, want := range cases {
		got, err := ExtractVideoID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestExtractVideoIDRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"https://vimeo.com/123456",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/channel/UC123",
		"not a url at all",
	} {
		_, err := ExtractVideoID(in)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, in)
	}
}
