package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-ytchat/internal/app"
	"gopherai-ytchat/internal/pkg/apperr"
)

const (
	CodeOK                   = 0
	CodeBadRequest           = 40000
	CodeNoTranscriptLoaded   = 40900
	CodeUnauthorized         = 40100
	CodeNotFound             = 40400
	CodeCaptionsDisabled     = 40401
	CodeSessionNotFound      = 40402
	CodePromptTooLarge       = 41300
	CodeRateLimited          = 42900
	CodeInternalServer       = 50000
	CodeDimensionMismatch    = 50001
	CodeProviderError        = 50200
	CodeEmbeddingUnavailable = 50300
	CodeNetworkError         = 50400
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    apperr.Kind `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// Failure writes an operation failure with the status and code of its kind.
func Failure(c *gin.Context, f *app.Failure) {
	httpStatus, code := StatusOf(f.Kind)
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: f.Message,
		Kind:    f.Kind,
	})
}

// Result writes either the payload or the failure carried by r.
func Result[T any](c *gin.Context, r app.Result[T]) {
	v, f := r.Unwrap()
	if f != nil {
		Failure(c, f)
		return
	}
	OK(c, v)
}

func StatusOf(kind apperr.Kind) (int, int) {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest, CodeBadRequest
	case apperr.KindNoTranscriptLoaded:
		return http.StatusConflict, CodeNoTranscriptLoaded
	case apperr.KindNotFound:
		return http.StatusNotFound, CodeNotFound
	case apperr.KindCaptionsDisabled:
		return http.StatusNotFound, CodeCaptionsDisabled
	case apperr.KindSessionNotFound:
		return http.StatusNotFound, CodeSessionNotFound
	case apperr.KindPromptTooLarge:
		return http.StatusRequestEntityTooLarge, CodePromptTooLarge
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests, CodeRateLimited
	case apperr.KindProviderError:
		return http.StatusBadGateway, CodeProviderError
	case apperr.KindEmbeddingUnavailable:
		return http.StatusServiceUnavailable, CodeEmbeddingUnavailable
	case apperr.KindNetworkError:
		return http.StatusGatewayTimeout, CodeNetworkError
	case apperr.KindDimensionMismatch:
		return http.StatusInternalServerError, CodeDimensionMismatch
	default:
		return http.StatusInternalServerError, CodeInternalServer
	}
}
