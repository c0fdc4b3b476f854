package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vidrag/vidrag/internal/pkg/errcode"
	"github.com/vidrag/vidrag/internal/pkg/response"
	"github.com/vidrag/vidrag/internal/service"
)

type ChatHandler struct {
	videos *service.VideoService
}

func NewChatHandler(videos *service.VideoService) *ChatHandler {
	return &ChatHandler{videos: videos}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.videos.Ask(c.Request.Context(), sessionID(c), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"answer": answer})
}

func (h *ChatHandler) History(c *gin.Context) {
	response.Success(c, gin.H{"messages": h.videos.History(sessionID(c))})
}

func (h *ChatHandler) Clear(c *gin.Context) {
	h.videos.ClearChat(sessionID(c))
	response.Success(c, gin.H{"cleared": true})
}
