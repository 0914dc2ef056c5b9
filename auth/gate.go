package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/wikiflow/types"
)

// Emitter receives stream events produced during authentication.
// *channel.Queue[types.StreamEvent] satisfies it.
type Emitter interface {
	Put(types.StreamEvent)
}

// TenantResolver resolves the tenant (cloud) id a fresh token grants
// access to. The Confluence client implements it via the Atlassian
// accessible-resources lookup.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// GateConfig carries the authorization flow parameters.
type GateConfig struct {
	Scopes   []string
	FlowType string
	Force    bool
}

// Gate drives the external authorization flow to mint a fresh
// credential. Concurrent invocations are serialized through a
// singleflight group: only one authorization flow runs at a time and
// waiters share its outcome. The consent URL is delivered only to the
// invocation that actually executes the flow.
type Gate struct {
	cfg      GateConfig
	store    *Store
	flow     Flow
	resolver TenantResolver
	group    singleflight.Group
	logger   *zap.Logger
}

// NewGate creates an authentication gate.
func NewGate(cfg GateConfig, store *Store, flow Flow, resolver TenantResolver, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		cfg:      cfg,
		store:    store,
		flow:     flow,
		resolver: resolver,
		logger:   logger.With(zap.String("component", "auth_gate")),
	}
}

// Authenticate runs the authorization flow, resolves the cloud id,
// and stores the resulting credential. Progress is reported onto the
// invocation's event stream. It returns true only when a complete
// credential (token and cloud id) was stored.
func (g *Gate) Authenticate(ctx context.Context, emit Emitter, toolName string) bool {
	name := toolName
	if name == "" {
		name = "Confluence"
	}
	emit.Put(types.StatusEvent(fmt.Sprintf(
		"Authentication required for %s access. Starting authorization flow...", name)))

	v, err, shared := g.group.Do("authorize", func() (any, error) {
		token, err := g.flow.Authorize(ctx, FlowRequest{
			Scopes:   g.cfg.Scopes,
			FlowType: g.cfg.FlowType,
			Force:    g.cfg.Force,
			OnAuthURL: func(url string) {
				g.logger.Info("authorization url issued")
				emit.Put(types.AuthURLEvent(url))
			},
		})
		if err != nil {
			return Credential{}, err
		}

		cloudID, err := g.resolver.ResolveTenant(ctx, token)
		if err != nil {
			// Resolution failure is not fatal to the queue; it is
			// reported in-band like an empty lookup.
			g.logger.Warn("tenant resolution failed", zap.Error(err))
			cloudID = ""
		}
		return Credential{Token: token, CloudID: cloudID, Claims: DecodeClaims(token)}, nil
	})
	if shared {
		g.logger.Debug("authorization flow shared with a concurrent invocation")
	}
	if err != nil {
		g.logger.Warn("authorization flow failed", zap.Error(err))
		emit.Put(types.StatusEvent(fmt.Sprintf("Authentication failed: %v", err)))
		return false
	}

	cred := v.(Credential)
	if cred.CloudID == "" {
		emit.Put(types.StatusEvent("Failed to obtain Atlassian Cloud ID"))
		return false
	}

	g.store.Set(cred)
	g.logger.Info("authentication successful",
		zap.String("cloud_id", cred.CloudID),
		zap.Time("token_expiry", cred.Claims.Expiry))

	emit.Put(types.StatusEvent(fmt.Sprintf(
		"Authentication successful! Atlassian Cloud ID: %s", cred.CloudID)))
	emit.Put(types.StatusEvent(fmt.Sprintf("Retrying %s...", name)))
	return true
}
