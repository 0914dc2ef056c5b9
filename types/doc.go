// Package types defines the shared domain types of wikiflow: stream
// events, invocation results, token usage, and the unified error type
// used across packages.
package types
