package api

import "github.com/BaSui01/wikiflow/types"

// InvokeRequest starts one agent invocation.
type InvokeRequest struct {
	// Prompt is the user's request. When empty the service substitutes
	// a placeholder prompt instead of rejecting the call.
	Prompt string `json:"prompt"`
}

// StreamEvent is the wire form of one invocation event. It is the
// domain event re-exported so handlers and clients share one shape.
type StreamEvent = types.StreamEvent

// VersionInfo reports build identity.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
}
