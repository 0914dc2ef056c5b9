// Package server manages the lifecycle of the service's HTTP
// listeners: non-blocking start, graceful shutdown, and signal
// handling.
// This package is internal and should not be imported by external
// projects.
package server
