// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/crvs-platform/appconfig/pkg/controller"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// Recovery creates middleware that recovers from panics in HTTP handlers.
// The panic is logged with its stack trace and, unless a response was
// already started, the client receives the standard error body.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			requestID := logger.RequestIDFromContext(c.Request.Context())
			log.Error("panic recovered",
				"request_id", requestID,
				"panic", r,
				"stack", string(debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, controller.ErrorResponse{
				Error:     "internal_server_error",
				Code:      "internal.panic",
				Message:   "an unexpected error occurred",
				RequestID: requestID,
			})
		}()

		c.Next()
	}
}
