// Package wikiflow provides a top-level convenience entry point for
// creating the invocation service with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/wikiflow"
//
//	svc, err := wikiflow.New(wikiflow.WithOpenAI("gpt-4o-mini"))
//	svc, err := wikiflow.New(wikiflow.WithProvider(myProvider), wikiflow.WithModel("custom"))
//
//	for ev := range svc.Invoke(ctx, "find the onboarding page") {
//		...
//	}
//
// The full wiring (credential store, authentication gate, Confluence
// tools, HTTP transport) lives in cmd/wikiflow; this package is for
// embedding the service in another program.
package wikiflow

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/agent"
	"github.com/BaSui01/wikiflow/auth"
	"github.com/BaSui01/wikiflow/llm"
)

// Option configures the service created by [New].
type Option func(*options)

type options struct {
	model         string
	systemPrompt  string
	maxIterations int
	provider      llm.Provider
	gate          agent.Authenticator
	tools         []agent.Tool
	logger        *zap.Logger

	// Provider shortcut fields, used when provider is nil.
	baseURL string
	apiKey  string
}

// WithProvider sets a pre-built LLM provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithOpenAI creates an OpenAI-compatible provider using the given
// model. API key is read from the OPENAI_API_KEY environment variable.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithAPIKey overrides the API key for provider shortcuts.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the endpoint for provider shortcuts.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithModel sets the model name. Overrides the model set by provider
// shortcuts.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithSystemPrompt sets the system prompt for the agent task.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.systemPrompt = prompt }
}

// WithMaxIterations caps the tool-calling loop.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithGate sets the authentication gate consulted when a result is
// classified as needing authentication. Without one, such results are
// returned to the caller unchanged.
func WithGate(g agent.Authenticator) Option {
	return func(o *options) { o.gate = g }
}

// WithTool registers a tool with the agent. May be given repeatedly.
func WithTool(t agent.Tool) Option {
	return func(o *options) { o.tools = append(o.tools, t) }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// denyGate stands in when no gate is configured: authentication always
// fails, so an auth-needed result passes through to the caller.
type denyGate struct{}

func (denyGate) Authenticate(context.Context, auth.Emitter, string) bool { return false }

// New creates an invocation [agent.Service] with minimal configuration.
// At minimum a provider must be specified via [WithOpenAI] or
// [WithProvider].
func New(opts ...Option) (*agent.Service, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := o.provider
	if p == nil {
		if o.model == "" {
			return nil, fmt.Errorf("provider is required: use WithProvider or WithOpenAI")
		}
		if o.apiKey == "" {
			return nil, fmt.Errorf("API key is required: set OPENAI_API_KEY or use WithAPIKey")
		}
		p = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  o.apiKey,
			BaseURL: o.baseURL,
			Model:   o.model,
		}, logger)
	}

	registry := agent.NewRegistry()
	for _, t := range o.tools {
		registry.Register(t)
	}

	task := agent.NewLLMTask(p, registry, agent.LLMTaskConfig{
		Model:         o.model,
		SystemPrompt:  o.systemPrompt,
		MaxIterations: o.maxIterations,
	}, logger)

	gate := o.gate
	if gate == nil {
		gate = denyGate{}
	}

	orch := agent.NewOrchestrator(task, gate, nil, logger)
	return agent.NewService(orch, logger), nil
}
