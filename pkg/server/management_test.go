package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crvs-platform/appconfig/pkg/config"
	"github.com/crvs-platform/appconfig/pkg/health"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
	"github.com/crvs-platform/appconfig/pkg/version"
)

type stubCheckable struct{ err error }

func (s stubCheckable) HealthCheck(context.Context) error { return s.err }

func newManagement(checkers ...health.Checker) *ManagementServer {
	registry := health.NewRegistry()
	for _, c := range checkers {
		registry.Register(c)
	}
	return NewManagementServer(
		config.DefaultConfig().Management,
		logger.NewNop(),
		registry,
		metrics.NewRegistry(),
		version.Info{Service: "config", Version: "v1.0.0"},
	)
}

func get(s *ManagementServer, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestManagementHealth(t *testing.T) {
	rec := get(newManagement(), "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestManagementReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []health.Checker
		wantStatus int
	}{
		{name: "no checks", wantStatus: http.StatusOK},
		{
			name:       "database down",
			checkers:   []health.Checker{health.NewDatabaseChecker("mongodb", stubCheckable{err: errors.New("no reachable servers")})},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "upstream down is degraded",
			checkers:   []health.Checker{health.NewUpstreamChecker("country-config", stubCheckable{err: errors.New("connection refused")})},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newManagement(tt.checkers...), "/ready")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestManagementMetricsAndVersion(t *testing.T) {
	s := newManagement()

	rec := get(s, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}

	rec = get(s, "/version")
	var info version.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "v1.0.0" {
		t.Fatalf("unexpected version %+v", info)
	}
}
