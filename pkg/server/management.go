package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crvs-platform/appconfig/pkg/config"
	"github.com/crvs-platform/appconfig/pkg/health"
	"github.com/crvs-platform/appconfig/pkg/middleware/logging"
	"github.com/crvs-platform/appconfig/pkg/middleware/recovery"
	"github.com/crvs-platform/appconfig/pkg/middleware/requestid"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
	"github.com/crvs-platform/appconfig/pkg/version"
)

// ManagementServer serves health, readiness, metrics and version endpoints
// on a port separate from the public API.
type ManagementServer struct {
	*Server
	healthRegistry  *health.Registry
	metricsRegistry *metrics.Registry
	versionInfo     version.Info
}

// NewManagementServer creates the management server. The stack is lighter
// than the public one and probe requests are not logged.
//
// Endpoints:
//   - /health: liveness, always 200
//   - /ready: dependency checks, 503 when unhealthy (degraded still serves)
//   - /metrics: Prometheus exposition
//   - /version: build metadata
func NewManagementServer(
	cfg config.ManagementConfig,
	log logger.Logger,
	healthRegistry *health.Registry,
	metricsRegistry *metrics.Registry,
	info version.Info,
) *ManagementServer {
	engine := newEngine()
	engine.Use(
		requestid.RequestID(),
		logging.LoggingWithConfig(log, logging.Config{ExcludedPathPrefixes: []string{"/health", "/ready", "/metrics"}}),
		recovery.Recovery(log),
	)

	s := &ManagementServer{
		Server: NewServer(Config{
			Name:         "management",
			Port:         cfg.Port,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}, engine, log),
		healthRegistry:  healthRegistry,
		metricsRegistry: metricsRegistry,
		versionInfo:     info,
	}
	s.registerEndpoints(engine)
	return s
}

func (s *ManagementServer) registerEndpoints(r gin.IRoutes) {
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(s.metricsRegistry.Handler()))
	r.GET("/version", s.handleVersion)
}

func (s *ManagementServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *ManagementServer) handleReady(c *gin.Context) {
	result := s.healthRegistry.Check(c.Request.Context())
	if result.Status == health.StatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *ManagementServer) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, s.versionInfo)
}
