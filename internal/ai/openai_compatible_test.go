package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/pkg/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAICompatibleClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAICompatibleClient(OpenAIConfig{
		BaseURL:        srv.URL + "/v1/",
		APIKey:         "secret",
		ChatModel:      "chat-model",
		EmbeddingModel: "embed-model",
	})
}

func TestOpenAIGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Model    string        `json:"model"`
			Messages []ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "chat-model", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "what is said?", body.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"it is said"}}]}`))
	})

	answer, err := c.Generate(context.Background(), "what is said?")
	require.NoError(t, err)
	assert.Equal(t, "it is said", answer)
}

func TestOpenAIEmbedBatchOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "embed-model", body.Model)
		assert.Equal(t, []string{"first", "second"}, body.Input)

		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	})

	vectors, err := c.EmbedBatch(context.Background(), []string{" first ", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestOpenAIEmbedBatchCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	})

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, apperr.ErrProviderError)
}

func TestOpenAIStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   apperr.Kind
	}{
		{http.StatusTooManyRequests, apperr.KindRateLimited},
		{http.StatusServiceUnavailable, apperr.KindNetworkError},
		{http.StatusGatewayTimeout, apperr.KindNetworkError},
		{http.StatusBadRequest, apperr.KindProviderError},
		{http.StatusInternalServerError, apperr.KindProviderError},
		{http.StatusUnauthorized, apperr.KindProviderError},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, tc.status)
			})
			_, err := c.Generate(context.Background(), "q")
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
}

func TestOpenAIMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := c.Generate(context.Background(), "q")
	assert.Equal(t, apperr.KindProviderError, apperr.KindOf(err))
}

func TestOpenAIUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAICompatibleClient(OpenAIConfig{BaseURL: url})
	_, err := c.Generate(context.Background(), "q")
	assert.Equal(t, apperr.KindNetworkError, apperr.KindOf(err))
}
