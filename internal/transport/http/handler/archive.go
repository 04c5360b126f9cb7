package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/transport/http/middleware"
	"gopherai-ytchat/internal/transport/http/response"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 500
)

type TurnLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.TurnRecord, error)
}

// ArchiveHandler serves the persisted turn log of the caller's session.
type ArchiveHandler struct {
	turns TurnLister
}

func NewArchiveHandler(turns TurnLister) *ArchiveHandler {
	return &ArchiveHandler{turns: turns}
}

func (h *ArchiveHandler) List(c *gin.Context) {
	limit := defaultArchiveLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = min(parsed, maxArchiveLimit)
	}

	sessionID := middleware.SessionID(c)
	records, err := h.turns.ListBySession(c.Request.Context(), sessionID, limit)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("list archived turns failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list archived turns failed")
		return
	}
	response.OK(c, gin.H{"turns": records})
}
