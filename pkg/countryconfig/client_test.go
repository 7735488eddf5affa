package countryconfig

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, metrics.NewRegistry().Upstream, logger.NewNop())
}

func TestFetchApplicationConfig_ForwardsToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/application-config" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"APPLICATION_NAME":"Farajaland","BIRTH":{"_id":"x"}}`))
	})

	doc, err := client.FetchApplicationConfig(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if doc["APPLICATION_NAME"] != "Farajaland" {
		t.Fatalf("unexpected document %v", doc)
	}
}

func TestFetchApplicationConfig_NoTokenNoHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no authorization header, got %q", h)
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := client.FetchApplicationConfig(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchApplicationConfig_Non2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchApplicationConfig(context.Background(), "")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", upstream.StatusCode)
	}
	if upstream.URL == "" {
		t.Fatal("expected URL on error")
	}
}

func TestFetchApplicationConfig_NotAnObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2]`))
	})

	_, err := client.FetchApplicationConfig(context.Background(), "")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestFetchApplicationConfig_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, nil, logger.NewNop())
	_, err := client.FetchApplicationConfig(context.Background(), "")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != 0 {
		t.Fatalf("expected no status for network failure, got %d", upstream.StatusCode)
	}
}

func TestFetchCertificate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer token")
		}
		switch r.URL.Path {
		case "/certificates/birth.svg":
			_, _ = w.Write([]byte("<svg>birth</svg>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	svg, err := client.FetchCertificate(context.Background(), "birth", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svg != "<svg>birth</svg>" {
		t.Fatalf("unexpected svg %q", svg)
	}

	_, err = client.FetchCertificate(context.Background(), "death", "tok")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 UpstreamError, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
