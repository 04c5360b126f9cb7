package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/app"
	"gopherai-ytchat/internal/pkg/apperr"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.KindInvalidInput, http.StatusBadRequest},
		{apperr.KindNoTranscriptLoaded, http.StatusConflict},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindCaptionsDisabled, http.StatusNotFound},
		{apperr.KindSessionNotFound, http.StatusNotFound},
		{apperr.KindPromptTooLarge, http.StatusRequestEntityTooLarge},
		{apperr.KindRateLimited, http.StatusTooManyRequests},
		{apperr.KindProviderError, http.StatusBadGateway},
		{apperr.KindEmbeddingUnavailable, http.StatusServiceUnavailable},
		{apperr.KindNetworkError, http.StatusGatewayTimeout},
		{apperr.KindDimensionMismatch, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			status, _ := StatusOf(tc.kind)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestResultWritesFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Result(c, app.Fail[*app.AskOutput](&app.Failure{Kind: apperr.KindNoTranscriptLoaded, Message: "load a video first"}))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeNoTranscriptLoaded, body.Code)
	assert.Equal(t, apperr.KindNoTranscriptLoaded, body.Kind)
	assert.Equal(t, "load a video first", body.Message)
}

func TestResultWritesPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Result(c, app.Ok(&app.ClearOutput{Cleared: true}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"ok","data":{"cleared":true}}`, w.Body.String())
}
