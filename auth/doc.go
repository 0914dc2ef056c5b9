// Package auth handles Atlassian credential acquisition for wikiflow.
//
// It contains the auth-need classifier (a keyword heuristic over
// agent output), the process-wide credential store, the authorization
// flow boundary with an HTTP identity-provider implementation, and
// the authentication gate that drives the flow, resolves the tenant
// cloud id, and reports progress onto an invocation's event stream.
//
// The package consumes an external authorization provider; it does
// not implement OAuth itself.
package auth
