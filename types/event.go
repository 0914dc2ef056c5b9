package types

import "time"

// EventType tags a StreamEvent payload.
type EventType string

const (
	// EventStatus carries a human-readable progress message.
	EventStatus EventType = "status"
	// EventAuthURL carries an authorization URL the caller must open
	// to complete interactive consent out-of-band.
	EventAuthURL EventType = "auth_url"
	// EventResult carries the invocation's final structured result.
	EventResult EventType = "result"
	// EventError carries an error message for a failed invocation.
	EventError EventType = "error"
)

// StreamEvent is one element of an invocation's event stream. Events
// are ordered; consumers must observe them in the exact order they
// were enqueued.
type StreamEvent struct {
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message,omitempty"`
	AuthURL   string            `json:"auth_url,omitempty"`
	Result    *InvocationResult `json:"result,omitempty"`
}

// InvocationResult is the final structured result of an agent
// invocation. Attempt records which task invocation produced the
// text (1 for the first run, 2 for the post-authentication retry).
type InvocationResult struct {
	Text    string      `json:"text"`
	Model   string      `json:"model,omitempty"`
	Attempt int         `json:"attempt,omitempty"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// StatusEvent builds a status StreamEvent.
func StatusEvent(message string) StreamEvent {
	return StreamEvent{Type: EventStatus, Timestamp: time.Now(), Message: message}
}

// AuthURLEvent builds an authorization-URL StreamEvent.
func AuthURLEvent(url string) StreamEvent {
	return StreamEvent{Type: EventAuthURL, Timestamp: time.Now(), AuthURL: url}
}

// ResultEvent builds a result StreamEvent.
func ResultEvent(result *InvocationResult) StreamEvent {
	return StreamEvent{Type: EventResult, Timestamp: time.Now(), Result: result}
}

// ErrorEvent builds an error StreamEvent.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Timestamp: time.Now(), Message: message}
}
