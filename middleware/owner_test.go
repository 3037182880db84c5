package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ownerRouter(defaultOwner string) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", OwnerMiddleware(defaultOwner), func(c *gin.Context) {
		c.String(http.StatusOK, OwnerFromContext(c))
	})
	return r
}

func TestOwnerMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		defaultOwner string
		wantCode     int
		wantBody     string
	}{
		{"header wins", "alice", "dev", http.StatusOK, "alice"},
		{"header is trimmed", "  bob ", "", http.StatusOK, "bob"},
		{"falls back to default", "", "dev", http.StatusOK, "dev"},
		{"no owner", "", "", http.StatusBadRequest, `"code":"NoOwner"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(OwnerHeader, tt.header)
			}
			ownerRouter(tt.defaultOwner).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
		assert.Equal(t, zap.ErrorLevel, entries[2].Level)
		assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
	}
}
