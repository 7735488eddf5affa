package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// UpstreamMetrics tracks calls to the country configuration service.
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newUpstreamMetrics() *UpstreamMetrics {
	return &UpstreamMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "countryconfig_requests_total",
				Help: "Requests sent to the country configuration service",
			},
			[]string{"resource", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "countryconfig_request_duration_seconds",
				Help:    "Country configuration request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
	}
}

func (m *UpstreamMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration}
}

// Observe records one upstream call. resource is a bounded label such as
// "application-config" or "certificate".
func (m *UpstreamMetrics) Observe(resource string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.requests.WithLabelValues(resource, outcome).Inc()
	m.duration.WithLabelValues(resource).Observe(duration.Seconds())
}

// OverrideMetrics tracks override store operations.
type OverrideMetrics struct {
	operations *prometheus.CounterVec
}

func newOverrideMetrics() *OverrideMetrics {
	return &OverrideMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "override_store_operations_total",
				Help: "Override document reads and writes",
			},
			[]string{"operation", "outcome"},
		),
	}
}

func (m *OverrideMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.operations}
}

// Observe records one override store operation ("read" or "write").
func (m *OverrideMetrics) Observe(operation string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}
