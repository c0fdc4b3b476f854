package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vidrag/vidrag/internal/pkg/errcode"
	"github.com/vidrag/vidrag/internal/pkg/response"
	"github.com/vidrag/vidrag/internal/service"
)

type VideoHandler struct {
	videos *service.VideoService
}

func NewVideoHandler(videos *service.VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

type processRequest struct {
	URL string `json:"url"`
}

func (h *VideoHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	entry, err := h.videos.Process(c.Request.Context(), sessionID(c), req.URL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

func (h *VideoHandler) List(c *gin.Context) {
	library := h.videos.Library(sessionID(c))
	active, _ := h.videos.Active(sessionID(c))
	response.Success(c, gin.H{
		"videos": library,
		"active": active.Collection,
	})
}

type activateRequest struct {
	Collection string `json:"collection"`
}

func (h *VideoHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.videos.SetActive(sessionID(c), req.Collection); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"active": req.Collection})
}

func (h *VideoHandler) Delete(c *gin.Context) {
	collection := c.Param("collection")
	if err := h.videos.Remove(c.Request.Context(), sessionID(c), collection); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": collection})
}
