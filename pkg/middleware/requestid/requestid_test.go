package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

func newEngine(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		*captured = logger.RequestIDFromContext(c.Request.Context())
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	var captured string
	r := newEngine(&captured)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if _, err := uuid.Parse(captured); err != nil {
		t.Fatalf("expected a UUID request id, got %q", captured)
	}
	if got := rec.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("response header = %q, want %q", got, captured)
	}
}

func TestRequestID_PreservesExistingHeader(t *testing.T) {
	var captured string
	r := newEngine(&captured)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "existing-request-id-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if captured != "existing-request-id-123" {
		t.Errorf("expected the incoming id to be kept, got %q", captured)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "existing-request-id-123" {
		t.Errorf("response header = %q", got)
	}
}
