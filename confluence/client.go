package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/auth"
	"github.com/BaSui01/wikiflow/internal/metrics"
	"github.com/BaSui01/wikiflow/types"
)

// Atlassian API endpoints.
const (
	DefaultDiscoveryURL = "https://api.atlassian.com/oauth/token/accessible-resources"
	DefaultAPIBase      = "https://api.atlassian.com/ex/confluence"
)

// ErrNotAuthenticated is returned when a document API call is made
// without a stored credential.
var ErrNotAuthenticated = types.NewError(types.ErrUnauthorized,
	"Atlassian authentication is required").WithHTTPStatus(http.StatusUnauthorized)

// Config configures the Confluence client.
type Config struct {
	// DiscoveryURL is the accessible-resources endpoint used to
	// resolve the cloud id for a fresh token.
	DiscoveryURL string
	// APIBase is the Confluence API gateway; the cloud id is appended
	// per request.
	APIBase string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// Collector records API call metrics. May be nil.
	Collector *metrics.Collector
}

// Client calls the Confluence Cloud REST API.
type Client struct {
	cfg       Config
	store     *auth.Store
	client    *http.Client
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewClient creates a Confluence client backed by the given
// credential store.
func NewClient(cfg Config, store *auth.Store, logger *zap.Logger) *Client {
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = DefaultDiscoveryURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:       cfg,
		store:     store,
		client:    &http.Client{Timeout: cfg.Timeout},
		collector: cfg.Collector,
		logger:    logger.With(zap.String("component", "confluence_client")),
	}
}

// Resource is one entry of the accessible-resources lookup.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AccessibleResources lists the Atlassian sites the token can access.
func (c *Client) AccessibleResources(ctx context.Context, token string) ([]Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.DiscoveryURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrTenantResolution, "build discovery request").WithCause(err)
	}
	setAuthHeaders(req, token)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.collector.RecordConfluenceCall("accessible_resources", 0, time.Since(start))
		return nil, types.NewError(types.ErrTenantResolution, "accessible-resources lookup failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()
	c.collector.RecordConfluenceCall("accessible_resources", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrTenantResolution,
			fmt.Sprintf("accessible-resources lookup returned %d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode)
	}

	var resources []Resource
	if err := json.NewDecoder(resp.Body).Decode(&resources); err != nil {
		return nil, types.NewError(types.ErrTenantResolution, "decode accessible-resources response").WithCause(err)
	}
	return resources, nil
}

// ResolveTenant implements auth.TenantResolver: the first accessible
// resource's id is the cloud id.
func (c *Client) ResolveTenant(ctx context.Context, token string) (string, error) {
	resources, err := c.AccessibleResources(ctx, token)
	if err != nil {
		return "", err
	}
	if len(resources) == 0 {
		return "", nil
	}
	return resources[0].ID, nil
}

// credential returns the stored credential or ErrNotAuthenticated.
func (c *Client) credential() (auth.Credential, error) {
	cred, ok := c.store.Get()
	if !ok {
		return auth.Credential{}, ErrNotAuthenticated
	}
	return cred, nil
}

// get performs an authorized GET and decodes a JSON response into out.
func (c *Client) get(ctx context.Context, cred auth.Credential, op, path string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/%s%s", strings.TrimRight(c.cfg.APIBase, "/"), cred.CloudID, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.NewError(types.ErrInternalError, "build request").WithCause(err)
	}
	setAuthHeaders(req, cred.Token)

	return c.do(op, req, out)
}

// post performs an authorized POST with a JSON body and decodes the
// response into out.
func (c *Client) post(ctx context.Context, cred auth.Credential, op, path string, body, out any) error {
	endpoint := fmt.Sprintf("%s/%s%s", strings.TrimRight(c.cfg.APIBase, "/"), cred.CloudID, path)

	payload, err := json.Marshal(body)
	if err != nil {
		return types.NewError(types.ErrInternalError, "encode request body").WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return types.NewError(types.ErrInternalError, "build request").WithCause(err)
	}
	setAuthHeaders(req, cred.Token)
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.collector.RecordConfluenceCall(op, 0, time.Since(start))
		return types.NewError(types.ErrUpstreamError, "confluence api unreachable").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()
	c.collector.RecordConfluenceCall(op, resp.StatusCode, time.Since(start))

	c.logger.Debug("confluence api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apiError(resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.ErrUpstreamError, "decode confluence response").WithCause(err)
	}
	return nil
}

func setAuthHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
}

// apiError maps a Confluence HTTP failure to a structured error
// carrying the response excerpt.
func apiError(status int, body string) *types.Error {
	code := types.ErrUpstreamError
	switch status {
	case http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case http.StatusForbidden:
		code = types.ErrForbidden
	case http.StatusNotFound:
		code = types.ErrNotFound
	case http.StatusTooManyRequests:
		code = types.ErrRateLimited
	}
	return types.NewError(code,
		fmt.Sprintf("confluence api returned %d: %s", status, strings.TrimSpace(body))).
		WithHTTPStatus(status).
		WithRetryable(status == http.StatusTooManyRequests || status >= 500)
}

// limitOrDefault clamps a tool-supplied limit to a sane value.
func limitOrDefault(limit int) string {
	if limit <= 0 {
		limit = 10
	}
	return strconv.Itoa(limit)
}
