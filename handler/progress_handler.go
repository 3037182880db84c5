package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docchat-be/middleware"
	"github.com/tieubaoca/docchat-be/service"
)

type ProgressHandler struct {
	progress *service.ProgressService
}

func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progress: progress,
	}
}

// HandleProgress streams the caller's upload events over a websocket.
func (h *ProgressHandler) HandleProgress(c *gin.Context) {
	h.progress.HandleProgress(c.Writer, c.Request, middleware.OwnerFromContext(c))
}
