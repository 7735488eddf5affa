package server

import (
	"github.com/gin-gonic/gin"

	"github.com/crvs-platform/appconfig/pkg/config"
	"github.com/crvs-platform/appconfig/pkg/middleware/logging"
	"github.com/crvs-platform/appconfig/pkg/middleware/metrics"
	"github.com/crvs-platform/appconfig/pkg/middleware/recovery"
	"github.com/crvs-platform/appconfig/pkg/middleware/requestid"
	"github.com/crvs-platform/appconfig/pkg/middleware/requestsize"
	"github.com/crvs-platform/appconfig/pkg/middleware/tracing"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	obsmetrics "github.com/crvs-platform/appconfig/pkg/observability/metrics"
)

// PublicAPIServer serves the configuration API.
type PublicAPIServer struct {
	*Server
	engine *gin.Engine
}

// NewPublicAPIServer creates the public server with its middleware stack:
// request ID, recovery, tracing, logging, metrics and the body size limit.
// Routes are registered on Engine by the caller.
func NewPublicAPIServer(cfg config.HTTPConfig, httpMetrics *obsmetrics.HTTPMetrics, log logger.Logger) *PublicAPIServer {
	engine := newEngine()
	engine.Use(
		requestid.RequestID(),
		recovery.Recovery(log),
		tracing.Tracing(tracing.Config{TracerName: "appconfig-http"}),
		logging.Logging(log),
		metrics.Metrics(httpMetrics),
		requestsize.Middleware(cfg.MaxRequestSize),
	)

	return &PublicAPIServer{
		Server: NewServer(Config{
			Name:         "public",
			Port:         cfg.Port,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		}, engine, log),
		engine: engine,
	}
}

// Engine returns the router for registering routes.
func (s *PublicAPIServer) Engine() *gin.Engine {
	return s.engine
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	return engine
}
