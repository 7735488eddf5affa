// Package requestsize limits request body sizes.
package requestsize

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// Middleware enforces a maximum request body size in bytes.
// A non-positive maxBytes disables the middleware. Declared oversized bodies
// are rejected immediately; undeclared ones fail when the handler reads past
// the limit.
func Middleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, map[string]any{
				"error":      "request_too_large",
				"message":    fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", maxBytes),
				"max_size":   maxBytes,
				"request_id": logger.RequestIDFromContext(c.Request.Context()),
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
