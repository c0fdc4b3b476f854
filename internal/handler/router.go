package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidrag/vidrag/internal/middleware"
)

type RouterDeps struct {
	Videos *VideoHandler
	Chat   *ChatHandler
	// ProcessWindow rate limits the expensive processing endpoint per
	// ip+session. Zero disables it.
	ProcessWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.Session())

	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	videos := api.Group("/videos")
	videos.POST("/process", middleware.RateLimit(deps.ProcessWindow), deps.Videos.Process)
	videos.GET("", deps.Videos.List)
	videos.POST("/activate", deps.Videos.Activate)
	videos.DELETE("/:collection", deps.Videos.Delete)

	chat := api.Group("/chat")
	chat.POST("/ask", deps.Chat.Ask)
	chat.GET("/history", deps.Chat.History)
	chat.DELETE("/history", deps.Chat.Clear)
}
