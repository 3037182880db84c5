package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docchat-be/types"
)

const (
	OwnerHeader     = "X-Owner-ID"
	ownerContextKey = "owner_id"
)

// OwnerMiddleware resolves the document owner from the X-Owner-ID header,
// falling back to defaultOwner. Requests with neither are rejected.
func OwnerMiddleware(defaultOwner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" {
			owner = defaultOwner
		}
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, types.DataResponse{
				Status:  types.StatusError,
				Code:    "NoOwner",
				Message: OwnerHeader + " header is required",
			})
			return
		}
		c.Set(ownerContextKey, owner)
		c.Next()
	}
}

// OwnerFromContext returns the owner set by OwnerMiddleware.
func OwnerFromContext(c *gin.Context) string {
	return c.GetString(ownerContextKey)
}
