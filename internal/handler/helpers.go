package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vidrag/vidrag/internal/middleware"
	"github.com/vidrag/vidrag/internal/pkg/errcode"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
	"github.com/vidrag/vidrag/internal/pkg/response"
)

func sessionID(c *gin.Context) string {
	return middleware.SessionID(c)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("session_id", sessionID(c)),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, err.Error())
	case appErr.IsEmptyResult(err):
		response.Error(c, errcode.ErrEmptyResult, err.Error())
	case appErr.IsUnavailable(err):
		response.Error(c, errcode.ErrAIUnavailable, err.Error())
	case errors.Is(err, appErr.ErrEmptyContent):
		response.Error(c, errcode.ErrEmptyContent, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
