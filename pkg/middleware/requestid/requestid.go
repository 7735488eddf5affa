// Package requestid assigns a correlation id to every request.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// RequestIDHeader is the HTTP header name for request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID creates middleware that generates or extracts request IDs.
// An incoming X-Request-ID is preserved; otherwise a UUID is generated.
// The id is echoed in the response headers and stored in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		ctx := logger.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
