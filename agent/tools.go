package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/wikiflow/llm"
)

// Tool is a callable the model may invoke. Invoke returns a JSON
// string that is fed back to the model as the tool result.
type Tool interface {
	Schema() llm.ToolSchema
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds the tools offered to the model.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice replaces the
// previous tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Schema().Name] = t
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Schemas returns all tool schemas in stable name order.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]llm.ToolSchema, 0, len(names))
	for _, name := range names {
		schemas = append(schemas, r.tools[name].Schema())
	}
	return schemas
}

// authRequiredResponse is the canonical tool answer when the document
// API has no credential. The classifier keys off its message text.
func authRequiredResponse(toolName string) string {
	out, _ := json.Marshal(map[string]any{
		"auth_required": true,
		"message":       fmt.Sprintf("Atlassian authentication is required for %s.", toolName),
	})
	return string(out)
}

// errorResponse is the canonical tool answer for API failures.
func errorResponse(message, details string) string {
	out, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   message,
		"details": details,
	})
	return string(out)
}

// authRequired reports whether a tool result is the auth-required
// answer, and for which tool.
type toolEnvelope struct {
	AuthRequired bool `json:"auth_required"`
}

func isAuthRequired(result string) bool {
	var env toolEnvelope
	if err := json.Unmarshal([]byte(result), &env); err != nil {
		return false
	}
	return env.AuthRequired
}
