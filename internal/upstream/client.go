// Package upstream talks to the analytics backend that owns donation data.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vistara/donation-dashboard/internal/dashboard"
)

// Endpoint names used for metrics, cache keys and errors.
const (
	EndpointDashboard        = "dashboard"
	EndpointInsightsComplete = "ai_insights_complete"
	EndpointInsights         = "ai_insights"
	EndpointForecast         = "forecast"
	EndpointReport           = "report"
)

const maxBodyBytes = 32 << 20

// Observer receives upstream call and cache outcomes.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, elapsed time.Duration)
	ObserveCache(result string)
}

// Document is a binary report returned by the backend.
type Document struct {
	Body        []byte
	ContentType string
	// Disposition is the raw content-disposition header. HasDisposition
	// distinguishes an empty header from an absent one.
	Disposition    string
	HasDisposition bool
}

// Client fetches raw upstream payloads. JSON endpoints go through the
// optional Cache; identical concurrent loads are coalesced.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cache      *Cache
	logger     *slog.Logger
	observer   Observer
	group      singleflight.Group
}

// NewClient validates baseURL and builds a Client. A nil httpClient uses a
// client without timeout.
func NewClient(baseURL string, httpClient *http.Client, cache *Cache, logger *slog.Logger) (*Client, error) {
	u, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: u, httpClient: httpClient, cache: cache, logger: logger}, nil
}

// ParseBaseURL checks that raw is an absolute http(s) URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("upstream: base url required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upstream: base url %q must be absolute http(s)", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// WithObserver attaches metrics.
func (c *Client) WithObserver(o Observer) *Client {
	if c != nil {
		c.observer = o
	}
	return c
}

// Dashboard fetches /api/dashboard for period.
func (c *Client) Dashboard(ctx context.Context, period dashboard.Period) ([]byte, error) {
	q := url.Values{}
	q.Set("period", period.String())
	return c.fetchJSON(ctx, EndpointDashboard, "/api/dashboard", q)
}

// InsightsComplete fetches the combined insights payload.
func (c *Client) InsightsComplete(ctx context.Context) ([]byte, error) {
	return c.fetchJSON(ctx, EndpointInsightsComplete, "/api/ai-insights-complete", nil)
}

// Insights fetches the legacy insights payload.
func (c *Client) Insights(ctx context.Context) ([]byte, error) {
	return c.fetchJSON(ctx, EndpointInsights, "/api/ai-insights", nil)
}

// Forecast fetches the legacy forecast payload.
func (c *Client) Forecast(ctx context.Context) ([]byte, error) {
	return c.fetchJSON(ctx, EndpointForecast, "/api/forecast", nil)
}

// ReportPath maps a report type to its backend path. Anything other than
// weekly or monthly is treated as a yearly report.
func ReportPath(kind string, year int) string {
	switch kind {
	case "weekly":
		return "/reports/weekly"
	case "monthly":
		return "/reports/monthly"
	default:
		return "/reports/yearly/" + strconv.Itoa(year)
	}
}

// Report downloads a report document. Reports are never cached.
func (c *Client) Report(ctx context.Context, kind string, year int) (*Document, error) {
	resp, err := c.do(ctx, EndpointReport, ReportPath(kind, year), nil, "application/pdf, */*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream %s: read body: %w", EndpointReport, err)
	}
	doc := &Document{Body: body, ContentType: resp.Header.Get("Content-Type")}
	if values := resp.Header.Values("Content-Disposition"); len(values) > 0 {
		doc.HasDisposition = true
		doc.Disposition = values[0]
	}
	return doc, nil
}

// Invalidate bumps the cache version so the next fetch reaches the backend.
func (c *Client) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.cache.Bump(ctx)
}

func (c *Client) fetchJSON(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	if c == nil {
		return nil, errors.New("upstream: client not configured")
	}
	parts := []string{"upstream", endpoint}
	if len(query) > 0 {
		parts = append(parts, query.Encode())
	}
	key, err := c.cache.BuildKey(ctx, parts...)
	if err != nil {
		c.logger.Warn("upstream cache key unavailable", slog.String("endpoint", endpoint), slog.Any("error", err))
		return c.getJSON(ctx, endpoint, path, query)
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.cache.FetchRaw(ctx, key, func(ctx context.Context) ([]byte, error) {
			return c.getJSON(ctx, endpoint, path, query)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	resp, err := c.do(ctx, endpoint, path, query, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream %s: read body: %w", endpoint, err)
	}
	return body, nil
}

// do issues a GET and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, endpoint, path string, query url.Values, accept string) (*http.Response, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + path
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return nil, fmt.Errorf("upstream %s: %w", endpoint, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	c.observe(endpoint, "ok", start)
	return resp, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
	}
}
