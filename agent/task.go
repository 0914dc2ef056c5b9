package agent

import (
	"context"

	"github.com/BaSui01/wikiflow/types"
)

// TaskResult is the textual outcome of one task invocation.
type TaskResult struct {
	// Text is the content used for auth-need classification and
	// returned to the caller.
	Text string
	// Model that produced the text, when known.
	Model string
	// Usage accumulated over the task's LLM calls.
	Usage types.TokenUsage
	// AuthTool names the tool that reported an authorization
	// requirement during the run, if any. It replaces the shared
	// "current tool name" state with a per-invocation value.
	AuthTool string
}

// Task is the unit of work an invocation runs. Failure is signaled by
// the returned error; the orchestrator treats it as fatal to the
// attempt but never to the event stream.
type Task interface {
	Invoke(ctx context.Context, prompt string) (*TaskResult, error)
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(ctx context.Context, prompt string) (*TaskResult, error)

// Invoke implements Task.
func (f TaskFunc) Invoke(ctx context.Context, prompt string) (*TaskResult, error) {
	return f(ctx, prompt)
}
