package auth

import "context"

// AuthURLFunc is invoked by an authorization flow when interactive
// user consent is required. Implementations publish the URL to the
// invocation's event stream and return immediately; they never block
// waiting for the user and never resume the flow themselves.
type AuthURLFunc func(url string)

// FlowRequest parameterizes one authorization flow run.
type FlowRequest struct {
	Scopes    []string
	FlowType  string
	Force     bool
	OnAuthURL AuthURLFunc
}

// Flow is the external authorization flow boundary. Authorize blocks
// until the provider has minted a bearer token or the flow fails.
type Flow interface {
	Authorize(ctx context.Context, req FlowRequest) (string, error)
}

// FlowFunc adapts a function to the Flow interface.
type FlowFunc func(ctx context.Context, req FlowRequest) (string, error)

// Authorize implements Flow.
func (f FlowFunc) Authorize(ctx context.Context, req FlowRequest) (string, error) {
	return f(ctx, req)
}
