package handler

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docchat-be/middleware"
	"github.com/tieubaoca/docchat-be/service"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	fileService *service.FileService
	logger      *zap.Logger
}

func NewDocumentHandler(fileService *service.FileService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// GetDocument returns a stored document with its sections and chunks.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.fileService.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusOK,
		Data:   doc,
	})
}

// ServeDocument streams the archived original PDF.
func (h *DocumentHandler) ServeDocument(c *gin.Context) {
	doc, err := h.fileService.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendError(c, err)
		return
	}
	if doc.StoragePath == "" {
		h.sendError(c, fmt.Errorf("file of document %s: %w", doc.ID, utils.ErrNotFound))
		return
	}
	if _, err := os.Stat(doc.StoragePath); err != nil {
		h.sendError(c, fmt.Errorf("file of document %s: %w", doc.ID, utils.ErrNotFound))
		return
	}

	c.Header("Content-Type", types.MediaTypePDF)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", utils.SanitizeFileName(doc.Name)))
	http.ServeFile(c.Writer, c.Request, doc.StoragePath)
}

// ListDocuments returns the caller's documents, newest first.
// Query: page (default 1), limit (default 20, max 100).
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		h.badQuery(c, "page must be an integer")
		return
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		h.badQuery(c, "limit must be an integer")
		return
	}

	res, err := h.fileService.ListDocuments(c.Request.Context(), types.DocumentFilter{
		OwnerID: middleware.OwnerFromContext(c),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusOK,
		Data:   res,
	})
}

func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.fileService.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  types.StatusOK,
		Message: "document deleted",
	})
}

func queryInt(c *gin.Context, key string, def int64) (int64, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func (h *DocumentHandler) badQuery(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, types.DataResponse{
		Status:  types.StatusError,
		Code:    "InvalidQuery",
		Message: message,
	})
}

func (h *DocumentHandler) sendError(c *gin.Context, err error) {
	appErr := utils.MapError(err)
	if appErr.Code >= http.StatusInternalServerError {
		h.logger.Error("document request failed", zap.String("id", c.Param("id")), zap.Error(err))
	}
	c.JSON(appErr.Code, types.DataResponse{
		Status:  types.StatusError,
		Code:    appErr.Kind,
		Message: appErr.Message,
	})
}
