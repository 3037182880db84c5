package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docchat-be/middleware"
	"github.com/tieubaoca/docchat-be/service"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

// multipart framing allowance on top of the file size limit
const formOverhead = 1 << 20

type UploadHandler struct {
	fileService *service.FileService
	logger      *zap.Logger
}

func NewUploadHandler(fileService *service.FileService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
		logger:      logger,
	}
}

func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	maxSize := h.fileService.MaxUploadSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+formOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.sendError(c, "", fmt.Errorf("%w: request exceeds %d bytes", utils.ErrFileTooLarge, maxBytesErr.Limit))
			return
		}
		h.sendError(c, "", fmt.Errorf("%w: %v", utils.ErrNoFile, err))
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if !service.IsPDFMediaType(mediaType) {
		h.sendError(c, header.Filename, utils.AtStage("validate", fmt.Errorf("%w: got %q", utils.ErrUnsupportedMediaType, mediaType)))
		return
	}
	if header.Size > maxSize {
		h.sendError(c, header.Filename, utils.AtStage("validate", fmt.Errorf("%w: %d bytes (max %d)", utils.ErrFileTooLarge, header.Size, maxSize)))
		return
	}

	sectioned := h.fileService.Pipeline().Defaults().Sectioned
	if v := c.PostForm("sectioned"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  types.StatusError,
				Code:    "InvalidSectioned",
				Message: "sectioned must be a boolean",
			})
			return
		}
		sectioned = parsed
	}

	file, err := header.Open()
	if err != nil {
		h.sendError(c, header.Filename, utils.AtStage("read", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, header.Filename, utils.AtStage("read", err))
		return
	}

	res, err := h.fileService.UploadFile(c.Request.Context(), types.RawDocument{
		Data:      data,
		MediaType: mediaType,
		Filename:  header.Filename,
	}, types.UploadRequest{
		OwnerID:   middleware.OwnerFromContext(c),
		Sectioned: sectioned,
	})
	if err != nil {
		h.sendError(c, header.Filename, err)
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusOK,
		Data:   res,
	})
}

// sendError logs err with the document and stage it belongs to and writes
// the mapped error response.
func (h *UploadHandler) sendError(c *gin.Context, filename string, err error) {
	appErr := utils.MapError(err)
	fields := []zap.Field{
		zap.String("filename", filename),
		zap.String("stage", utils.StageOf(err)),
		zap.Int("status", appErr.Code),
		zap.Error(err),
	}
	if appErr.Code >= http.StatusInternalServerError {
		h.logger.Error("upload failed", fields...)
	} else {
		h.logger.Warn("upload rejected", fields...)
	}

	c.Error(err)
	c.JSON(appErr.Code, types.DataResponse{
		Status:  types.StatusError,
		Code:    appErr.Kind,
		Message: appErr.Message,
	})
}
