// Package metrics records Prometheus HTTP metrics for every request.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"

	obsmetrics "github.com/crvs-platform/appconfig/pkg/observability/metrics"
)

// Metrics creates middleware that records request count, duration and
// in-flight requests. Paths are labelled with the matched route template so
// unknown paths do not grow label cardinality.
func Metrics(m *obsmetrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.IncInFlight()
		defer m.DecInFlight()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.Record(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
