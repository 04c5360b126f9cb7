package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-ytchat/internal/app"
	"gopherai-ytchat/internal/transport/http/middleware"
	"gopherai-ytchat/internal/transport/http/response"
)

type TranscriptService interface {
	LoadVideo(ctx context.Context, input app.LoadVideoInput) app.Result[*app.LoadOutput]
	LoadTranscript(ctx context.Context, input app.LoadInput) app.Result[*app.LoadOutput]
	Ask(ctx context.Context, input app.AskInput) app.Result[*app.AskOutput]
	Clear(ctx context.Context, sessionID string) app.Result[*app.ClearOutput]
	Status(sessionID string) app.Result[*app.StatusOutput]
	History(sessionID string) app.Result[*app.HistoryOutput]
}

type TranscriptHandler struct {
	service TranscriptService
}

type LoadVideoRequest struct {
	YouTubeURL string `json:"youtube_url" binding:"required"`
}

type LoadTranscriptRequest struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript" binding:"required"`
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k" binding:"gte=0"`
}

func NewTranscriptHandler(service TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

func (h *TranscriptHandler) LoadVideo(c *gin.Context) {
	var req LoadVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	response.Result(c, h.service.LoadVideo(c.Request.Context(), app.LoadVideoInput{
		SessionID:  middleware.SessionID(c),
		YouTubeURL: req.YouTubeURL,
	}))
}

func (h *TranscriptHandler) LoadTranscript(c *gin.Context) {
	var req LoadTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	response.Result(c, h.service.LoadTranscript(c.Request.Context(), app.LoadInput{
		SessionID:  middleware.SessionID(c),
		VideoID:    req.VideoID,
		Transcript: req.Transcript,
	}))
}

func (h *TranscriptHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	response.Result(c, h.service.Ask(c.Request.Context(), app.AskInput{
		SessionID: middleware.SessionID(c),
		Question:  req.Question,
		TopK:      req.TopK,
	}))
}

func (h *TranscriptHandler) Clear(c *gin.Context) {
	response.Result(c, h.service.Clear(c.Request.Context(), middleware.SessionID(c)))
}

func (h *TranscriptHandler) Status(c *gin.Context) {
	response.Result(c, h.service.Status(middleware.SessionID(c)))
}

func (h *TranscriptHandler) History(c *gin.Context) {
	response.Result(c, h.service.History(middleware.SessionID(c)))
}
