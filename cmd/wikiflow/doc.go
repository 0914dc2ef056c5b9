// Command wikiflow runs the Confluence agent invocation service: an
// HTTP server that executes agent invocations and streams their
// events over SSE and WebSocket, with an OAuth authentication gate in
// front of the Confluence tools.
package main
