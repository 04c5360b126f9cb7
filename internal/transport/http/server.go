package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gopherai-ytchat/internal/bootstrap"
	"gopherai-ytchat/internal/transport/http/handler"
	"gopherai-ytchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	transcriptHandler := handler.NewTranscriptHandler(app.Service)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.SessionToken(app.Sessions, app.Tokens, app.Config.Session.CookieName))
	v1.POST("/videos", transcriptHandler.LoadVideo)
	v1.POST("/transcripts", transcriptHandler.LoadTranscript)
	v1.POST("/ask", transcriptHandler.Ask)
	v1.POST("/clear", transcriptHandler.Clear)
	v1.GET("/status", transcriptHandler.Status)
	v1.GET("/history", transcriptHandler.History)

	if app.Turns != nil {
		archiveHandler := handler.NewArchiveHandler(app.Turns)
		v1.GET("/archive", archiveHandler.List)
	}

	return router
}
