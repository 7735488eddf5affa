// Package logging writes one structured log line per HTTP request.
package logging

import (
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

// Log field name constants
const (
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
	FieldUserAgent  = "http_user_agent"
	FieldError      = "error"
)

// Config configures request logging middleware behavior.
type Config struct {
	// ExcludedPathPrefixes skips logging for matching paths, e.g. probes.
	ExcludedPathPrefixes []string
}

// DefaultConfig returns the default request logging configuration.
func DefaultConfig() Config {
	return Config{}
}

// Logging logs every request with the default configuration.
func Logging(log logger.Logger) gin.HandlerFunc {
	return LoggingWithConfig(log, DefaultConfig())
}

// LoggingWithConfig logs completed requests. Server errors are logged at
// error level, client errors at warn and everything else at info.
func LoggingWithConfig(log logger.Logger, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if excluded(path, cfg.ExcludedPathPrefixes) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			FieldRequestID, logger.RequestIDFromContext(c.Request.Context()),
			FieldMethod, c.Request.Method,
			FieldPath, path,
			FieldStatus, status,
			FieldDurationMS, time.Since(start).Milliseconds(),
			FieldRemoteAddr, remoteHost(c.Request.RemoteAddr),
			FieldUserAgent, c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, FieldError, c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
