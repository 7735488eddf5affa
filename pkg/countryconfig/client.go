// Package countryconfig is the HTTP client for the country configuration service.
package countryconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/crvs-platform/appconfig/pkg/observability/logger"
	"github.com/crvs-platform/appconfig/pkg/observability/metrics"
	"github.com/crvs-platform/appconfig/pkg/observability/tracing"
)

const (
	applicationConfigPath = "/application-config"
	certificatePath       = "/certificates/{event}.svg"
	pingPath              = "/ping"
)

// UpstreamError reports a failed call to the country configuration service.
// StatusCode is zero when no response was received.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("country config request %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("country config request %s failed: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Config configures the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the country configuration service. Calls are never retried.
type Client struct {
	client  *resty.Client
	baseURL string
	metrics *metrics.UpstreamMetrics
	logger  logger.Logger
}

// NewClient creates a Client. m may be nil.
func NewClient(cfg Config, m *metrics.UpstreamMetrics, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &Client{
		client:  cli,
		baseURL: baseURL,
		metrics: m,
		logger:  log,
	}
}

// FetchApplicationConfig returns the provider's application configuration.
// The bearer header is only sent when token is non-empty.
func (c *Client) FetchApplicationConfig(ctx context.Context, token string) (map[string]any, error) {
	url := c.baseURL + applicationConfigPath

	req := c.client.R().SetHeader("Accept", "application/json")
	if token != "" {
		req.SetAuthToken(token)
	}

	resp, err := c.get(ctx, "application-config", url, req, applicationConfigPath)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, &UpstreamError{URL: url, Err: fmt.Errorf("decode application config: %w", err)}
	}
	if doc == nil {
		return nil, &UpstreamError{URL: url, Err: fmt.Errorf("application config is not a JSON object")}
	}
	return doc, nil
}

// FetchCertificate returns the SVG template for event.
func (c *Client) FetchCertificate(ctx context.Context, event, token string) (string, error) {
	url := c.baseURL + strings.Replace(certificatePath, "{event}", event, 1)

	req := c.client.R().
		SetPathParam("event", event).
		SetAuthToken(token)

	resp, err := c.get(ctx, "certificate", url, req, certificatePath)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// HealthCheck pings the provider.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.baseURL + pingPath
	_, err := c.get(ctx, "ping", url, c.client.R(), pingPath)
	return err
}

func (c *Client) get(ctx context.Context, resource, url string, req *resty.Request, path string) (*resty.Response, error) {
	ctx, span := tracing.StartUpstreamSpan(ctx, url)
	defer span.End()

	start := time.Now()
	resp, err := req.SetContext(ctx).Get(path)
	if err == nil {
		err = mapHTTPError(resp, url)
	} else {
		err = &UpstreamError{URL: url, Err: err}
	}

	tracing.RecordError(span, err)
	c.metrics.Observe(resource, time.Since(start), err)
	if err != nil {
		c.logger.WithContext(ctx).Warn("country config request failed", "resource", resource, "error", err)
		return nil, err
	}
	return resp, nil
}

func mapHTTPError(resp *resty.Response, url string) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	body := strings.TrimSpace(resp.String())
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return &UpstreamError{
		URL:        url,
		StatusCode: resp.StatusCode(),
		Err:        fmt.Errorf("http %d: %s", resp.StatusCode(), body),
	}
}
