package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/types"
)

// ProviderFlowConfig configures the HTTP client for the external
// identity provider.
type ProviderFlowConfig struct {
	// BaseURL of the identity provider token API.
	BaseURL string
	// Provider is the OAuth provider name registered with the
	// identity service (e.g. "atlassian_oauth_provider").
	Provider string
	// PollInterval between token readiness checks while user consent
	// is pending.
	PollInterval time.Duration
	// RequestTimeout bounds each individual HTTP request, not the
	// overall flow.
	RequestTimeout time.Duration
}

// ProviderFlow implements Flow against an external identity-provider
// HTTP API. The provider owns the OAuth dance: ProviderFlow only
// requests a token, surfaces the consent URL through the callback
// when the provider reports the authorization as pending, and polls
// until the token is ready.
type ProviderFlow struct {
	cfg    ProviderFlowConfig
	client *http.Client
	logger *zap.Logger
}

// NewProviderFlow creates an identity-provider flow client.
func NewProviderFlow(cfg ProviderFlowConfig, logger *zap.Logger) *ProviderFlow {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderFlow{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger.With(zap.String("component", "provider_flow")),
	}
}

type tokenRequest struct {
	Provider            string   `json:"provider"`
	Scopes              []string `json:"scopes,omitempty"`
	FlowType            string   `json:"flow_type,omitempty"`
	ForceAuthentication bool     `json:"force_authentication,omitempty"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Authorize requests a bearer token from the identity provider. When
// interactive consent is required the provider answers 202 with an
// authorization URL; the URL is handed to req.OnAuthURL and the call
// suspends, polling until the provider reports the token ready.
func (f *ProviderFlow) Authorize(ctx context.Context, req FlowRequest) (string, error) {
	body, err := json.Marshal(tokenRequest{
		Provider:            f.cfg.Provider,
		Scopes:              req.Scopes,
		FlowType:            req.FlowType,
		ForceAuthentication: req.Force,
	})
	if err != nil {
		return "", types.NewError(types.ErrAuthFlow, "encode token request").WithCause(err)
	}

	url := f.cfg.BaseURL + "/v1/token"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewError(types.ErrAuthFlow, "build token request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.doToken(httpReq)
	if err != nil {
		return "", err
	}

	if resp.AccessToken != "" {
		f.logger.Info("token obtained without interactive consent")
		return resp.AccessToken, nil
	}
	if resp.AuthorizationURL == "" || resp.RequestID == "" {
		return "", types.NewError(types.ErrAuthFlow, "provider returned neither token nor authorization url")
	}

	f.logger.Info("interactive consent required",
		zap.String("request_id", resp.RequestID))
	if req.OnAuthURL != nil {
		req.OnAuthURL(resp.AuthorizationURL)
	}

	return f.poll(ctx, resp.RequestID)
}

// poll waits for the pending authorization to complete.
func (f *ProviderFlow) poll(ctx context.Context, requestID string) (string, error) {
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	url := fmt.Sprintf("%s/v1/token/%s", f.cfg.BaseURL, requestID)
	for {
		select {
		case <-ctx.Done():
			return "", types.NewError(types.ErrAuthFlow, "authorization flow interrupted").WithCause(ctx.Err())
		case <-ticker.C:
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", types.NewError(types.ErrAuthFlow, "build poll request").WithCause(err)
		}

		resp, err := f.doToken(httpReq)
		if err != nil {
			return "", err
		}
		if resp.AccessToken != "" {
			f.logger.Info("token obtained after consent",
				zap.String("request_id", requestID))
			return resp.AccessToken, nil
		}
		// Still pending, keep polling.
	}
}

// doToken performs the request and decodes a token response. A 202
// answer is not an error: it signals a pending authorization.
func (f *ProviderFlow) doToken(req *http.Request) (*tokenResponse, error) {
	httpResp, err := f.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrAuthFlow, "identity provider unreachable").
			WithCause(err).WithRetryable(true)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrAuthFlow, "read identity provider response").WithCause(err)
	}

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		return nil, types.NewError(types.ErrAuthFlow,
			fmt.Sprintf("identity provider returned %d: %s", httpResp.StatusCode, string(data))).
			WithHTTPStatus(httpResp.StatusCode)
	}

	var resp tokenResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, types.NewError(types.ErrAuthFlow, "decode identity provider response").WithCause(err)
	}
	if resp.Error != "" {
		return nil, types.NewError(types.ErrAuthFlow, resp.Error)
	}
	return &resp, nil
}
