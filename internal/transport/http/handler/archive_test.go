package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/transport/http/middleware"
)

type fakeLister struct {
	sessionID string
	limit     int
	err       error
}

func (f *fakeLister) ListBySession(_ context.Context, sessionID string, limit int) ([]model.TurnRecord, error) {
	f.sessionID = sessionID
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []model.TurnRecord{{SessionID: sessionID, Role: string(model.RoleUser), Content: "hi"}}, nil
}

func newArchiveRouter(lister TurnLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextSessionIDKey, "session-1")
		c.Next()
	})
	r.GET("/archive", NewArchiveHandler(lister).List)
	return r
}

func TestArchiveList(t *testing.T) {
	lister := &fakeLister{}
	r := newArchiveRouter(lister)

	w := do(r, http.MethodGet, "/archive?limit=1000", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-1", lister.sessionID)
	assert.Equal(t, maxArchiveLimit, lister.limit)
	assert.Contains(t, w.Body.String(), `"content":"hi"`)
}

func TestArchiveDefaultsAndErrors(t *testing.T) {
	lister := &fakeLister{}
	r := newArchiveRouter(lister)

	do(r, http.MethodGet, "/archive", "")
	assert.Equal(t, defaultArchiveLimit, lister.limit)

	w := do(r, http.MethodGet, "/archive?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	lister.err = errors.New("db down")
	w = do(r, http.MethodGet, "/archive", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
