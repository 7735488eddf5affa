// Package metrics provides Prometheus metrics for the configuration service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry manages Prometheus metrics registration and exposure.
// It carries the HTTP and domain collectors plus Go runtime metrics.
type Registry struct {
	registry *prometheus.Registry

	HTTP     *HTTPMetrics
	Upstream *UpstreamMetrics
	Override *OverrideMetrics
}

// NewRegistry creates a registry with every service collector registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		HTTP:     newHTTPMetrics(),
		Upstream: newUpstreamMetrics(),
		Override: newOverrideMetrics(),
	}

	reg.MustRegister(r.HTTP.collectors()...)
	reg.MustRegister(r.Upstream.collectors()...)
	reg.MustRegister(r.Override.collectors()...)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return r
}

// MustRegister registers additional collectors and panics on error.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler exposes metrics in Prometheus format for the management server.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying prometheus.Gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
