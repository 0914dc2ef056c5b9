// Package api defines the HTTP request and response types of the
// invocation service.
package api
