package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docchat-be/middleware"
	"github.com/tieubaoca/docchat-be/service"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with every route of the ingestion API.
// progress may be nil, in which case /ws/progress is not registered.
func NewRouter(fileService *service.FileService, progress *service.ProgressService, defaultOwner string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	corsHandler := NewCorsHandler()
	uploadHandler := NewUploadHandler(fileService, logger)
	documentHandler := NewDocumentHandler(fileService, logger)
	owner := middleware.OwnerMiddleware(defaultOwner)

	router.Use(corsHandler.CorsMiddleware)
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := router.Group("/api")
	api.POST("/upload", owner, uploadHandler.UploadDocumentHandler)
	api.GET("/documents", owner, documentHandler.ListDocuments)
	api.GET("/documents/:id", documentHandler.GetDocument)
	api.GET("/documents/:id/file", documentHandler.ServeDocument)
	api.DELETE("/documents/:id", documentHandler.DeleteDocument)

	if progress != nil {
		progressHandler := NewProgressHandler(progress)
		router.GET("/ws/progress", owner, progressHandler.HandleProgress)
	}

	return router
}
