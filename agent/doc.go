// Package agent contains the invocation orchestrator: it runs the
// LLM task, classifies its output for authorization failures, drives
// the authentication gate, retries the task at most once, and
// guarantees that every invocation's event stream terminates.
package agent
