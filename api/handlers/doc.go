// Package handlers implements the HTTP handlers of the invocation
// service: invocation streaming over SSE and WebSocket, health probes,
// and the shared response envelope.
package handlers
