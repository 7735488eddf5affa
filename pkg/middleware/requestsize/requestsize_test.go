package requestsize

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newEngine(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(limit))
	r.POST("/upload", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusCreated)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		limit      int64
		body       string
		chunked    bool
		wantStatus int
	}{
		{name: "within limit", limit: 10, body: "12345", wantStatus: http.StatusCreated},
		{name: "declared too large", limit: 4, body: "12345", wantStatus: http.StatusRequestEntityTooLarge},
		{name: "undeclared too large", limit: 4, body: "12345", chunked: true, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "disabled", limit: 0, body: strings.Repeat("x", 100), wantStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			newEngine(tt.limit).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
