// Package uspto is the adapter for the USPTO Open Data Portal application
// API: a thin authenticated fetch layer (client.go) and pure payload parsers
// (parse.go).  The package never touches storage; it turns HTTP responses
// into domain values and classified errors.
package uspto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// KeyProvider supplies the current API key.  An empty key with a nil error
// means no key is configured.
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// KeyProviderFunc adapts a function to the KeyProvider interface.
type KeyProviderFunc func(ctx context.Context) (string, error)

// APIKey implements KeyProvider.
func (f KeyProviderFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// MetricsCollector receives per-request timing observations.
type MetricsCollector interface {
	ObserveUpstreamRequest(resource string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveUpstreamRequest(string, time.Duration) {}

// Client fetches application data from the Open Data Portal.
type Client interface {
	// FetchResource retrieves one resource of an application as raw JSON.
	// Errors carry a source code: CodeSourceAuth, CodeSourceNotFound,
	// CodeSourceRateLimited, CodeSourceNetwork, or CodeSourceUnavailable.
	FetchResource(ctx context.Context, applicationNumber string, resource Resource) (json.RawMessage, error)

	// ValidateAPIKey probes a known application with the candidate key.
	// A definite verdict returns (ok, nil); a transport failure that never
	// reached the API returns an error so the caller does not mistake an
	// outage for a bad key.
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)
}

type httpClient struct {
	cfg     config.USPTOConfig
	http    *http.Client
	keys    KeyProvider
	logger  logging.Logger
	metrics MetricsCollector
}

// NewClient constructs a Client against cfg.BaseURL.  metrics may be nil.
func NewClient(cfg config.USPTOConfig, keys KeyProvider, logger logging.Logger, metrics MetricsCollector) Client {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &httpClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		keys:    keys,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *httpClient) resourceURL(applicationNumber string, resource Resource) string {
	normalized := tracking.NormalizeApplicationNumber(applicationNumber)
	if resource == ResourceApplication {
		return fmt.Sprintf("%s/%s", c.cfg.BaseURL, normalized)
	}
	return fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, normalized, resource)
}

func (c *httpClient) FetchResource(ctx context.Context, applicationNumber string, resource Resource) (json.RawMessage, error) {
	apiKey, err := c.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, appErrors.New(appErrors.CodeSourceNoAPIKey, "no API key configured")
	}
	return c.get(ctx, c.resourceURL(applicationNumber, resource), apiKey, resource)
}

func (c *httpClient) get(ctx context.Context, url, apiKey string, resource Resource) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeSourceNetwork, "failed to build request")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveUpstreamRequest(resource.Label(), time.Since(start))
	if err != nil {
		c.logger.Warn("upstream request failed",
			logging.String("resource", resource.Label()),
			logging.String("request_id", requestID),
			logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.CodeSourceNetwork, "request to USPTO API failed")
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		c.logger.Warn("upstream returned error status",
			logging.String("resource", resource.Label()),
			logging.String("request_id", requestID),
			logging.Int("status", resp.StatusCode))
		return nil, err
	}

	// Bounded read; a payload over the cap is treated as malformed rather
	// than buffered without limit.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeSourceNetwork, "failed to read response body")
	}
	if int64(len(body)) > c.cfg.MaxResponseBytes {
		return nil, appErrors.New(appErrors.CodeSourceMalformed, "response exceeds size limit").
			WithDetail(fmt.Sprintf("limit=%d bytes", c.cfg.MaxResponseBytes))
	}
	return body, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return appErrors.New(appErrors.CodeSourceAuth, "USPTO API rejected the API key").
			WithDetail(fmt.Sprintf("status=%d", status))
	case status == http.StatusNotFound:
		return appErrors.New(appErrors.CodeSourceNotFound, "resource not found at USPTO API")
	case status == http.StatusTooManyRequests:
		return appErrors.New(appErrors.CodeSourceRateLimited, "USPTO API rate limit exceeded")
	case status >= 500:
		return appErrors.New(appErrors.CodeSourceUnavailable, "USPTO API is unavailable").
			WithDetail(fmt.Sprintf("status=%d", status))
	default:
		return appErrors.New(appErrors.CodeSourceNetwork, "unexpected USPTO API status").
			WithDetail(fmt.Sprintf("status=%d", status))
	}
}

func (c *httpClient) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	if apiKey == "" {
		return false, nil
	}

	_, err := c.get(ctx, c.resourceURL(c.cfg.ProbeApplication, ResourceApplication), apiKey, ResourceApplication)
	switch {
	case err == nil:
		return true, nil
	case appErrors.IsAuth(err):
		return false, nil
	case appErrors.IsCode(err, appErrors.CodeSourceNetwork):
		// Could not reach the API at all; no verdict on the key.
		return false, err
	default:
		// The API answered, so the key was accepted even if the probe
		// application itself was unavailable.
		return true, nil
	}
}

var _ Client = (*httpClient)(nil)
