package wikiflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/wikiflow/llm"
	"github.com/BaSui01/wikiflow/types"
)

type staticProvider struct {
	text string
}

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{
		Model: req.Model,
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: p.text},
		}},
	}, nil
}

func (p *staticProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func collect(t *testing.T, events <-chan types.StreamEvent) []types.StreamEvent {
	t.Helper()
	var out []types.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("event stream did not terminate")
		}
	}
}

func TestNew_RequiresProvider(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}

func TestNew_ShortcutRequiresAPIKey(t *testing.T) {
	_, err := New(WithOpenAI("gpt-4o-mini"), WithAPIKey(""))
	if err == nil {
		t.Skip("OPENAI_API_KEY set in environment")
	}
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNew_InvokeStreamsToCompletion(t *testing.T) {
	t.Parallel()

	svc, err := New(
		WithProvider(&staticProvider{text: "the onboarding page is at /wiki/x"}),
		WithModel("static-model"),
	)
	require.NoError(t, err)

	events := collect(t, svc.Invoke(context.Background(), "find the onboarding page"))
	require.Len(t, events, 3)

	assert.Equal(t, types.EventStatus, events[0].Type)
	require.Equal(t, types.EventResult, events[1].Type)
	assert.Equal(t, "the onboarding page is at /wiki/x", events[1].Result.Text)
	assert.Equal(t, 1, events[1].Result.Attempt)
	assert.Equal(t, types.EventStatus, events[2].Type)
}

func TestNew_WithoutGateAuthNeededPassesThrough(t *testing.T) {
	t.Parallel()

	authText := "Authentication required: please authorize access to Confluence."
	svc, err := New(WithProvider(&staticProvider{text: authText}))
	require.NoError(t, err)

	events := collect(t, svc.Invoke(context.Background(), "search something"))
	require.Len(t, events, 3)
	require.Equal(t, types.EventResult, events[1].Type)
	assert.Equal(t, authText, events[1].Result.Text)
	assert.Equal(t, 1, events[1].Result.Attempt)
}
