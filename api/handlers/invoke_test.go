package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/wikiflow/types"
)

// stubInvoker replays a fixed event sequence and records prompts.
type stubInvoker struct {
	mu      sync.Mutex
	events  []types.StreamEvent
	prompts []string
}

func (s *stubInvoker) Invoke(_ context.Context, prompt string) <-chan types.StreamEvent {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	out := make(chan types.StreamEvent, len(s.events))
	for _, ev := range s.events {
		out <- ev
	}
	close(out)
	return out
}

func (s *stubInvoker) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// parseSSE extracts the data payloads from an SSE body.
func parseSSE(t *testing.T, body string) []string {
	t.Helper()
	var payloads []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			payloads = append(payloads, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())
	return payloads
}

func invocationEvents() []types.StreamEvent {
	return []types.StreamEvent{
		types.StatusEvent("Begin agent execution"),
		types.ResultEvent(&types.InvocationResult{Text: "done", Attempt: 1}),
		types.StatusEvent("End agent execution"),
	}
}

func TestHandleInvoke_StreamsEvents(t *testing.T) {
	t.Parallel()

	svc := &stubInvoker{events: invocationEvents()}
	h := NewInvocationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/invocations",
		strings.NewReader(`{"prompt": "find the runbook"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.HandleInvoke(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	payloads := parseSSE(t, rec.Body.String())
	require.Len(t, payloads, 4)
	assert.Equal(t, "[DONE]", payloads[3])

	var first types.StreamEvent
	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &first))
	assert.Equal(t, types.EventStatus, first.Type)
	assert.Equal(t, "Begin agent execution", first.Message)

	var second types.StreamEvent
	require.NoError(t, json.Unmarshal([]byte(payloads[1]), &second))
	assert.Equal(t, types.EventResult, second.Type)
	require.NotNil(t, second.Result)
	assert.Equal(t, "done", second.Result.Text)

	assert.Equal(t, "find the runbook", svc.lastPrompt())
}

func TestHandleInvoke_EmptyPromptGetsPlaceholder(t *testing.T) {
	t.Parallel()

	svc := &stubInvoker{events: invocationEvents()}
	h := NewInvocationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/invocations",
		strings.NewReader(`{"prompt": "   "}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.HandleInvoke(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No prompt found in input", svc.lastPrompt())
}

func TestHandleInvoke_RejectsWrongContentType(t *testing.T) {
	t.Parallel()

	svc := &stubInvoker{}
	h := NewInvocationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/invocations",
		strings.NewReader(`{"prompt": "x"}`))
	r.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	h.HandleInvoke(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.prompts)
}

func TestHandleInvoke_RejectsMalformedBody(t *testing.T) {
	t.Parallel()

	svc := &stubInvoker{}
	h := NewInvocationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/invocations",
		strings.NewReader(`{"prompt": `))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.HandleInvoke(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.prompts)
}

func TestHandleInvoke_ErrorEventIsStreamed(t *testing.T) {
	t.Parallel()

	svc := &stubInvoker{events: []types.StreamEvent{
		types.StatusEvent("Begin agent execution"),
		types.ErrorEvent("Error: boom"),
	}}
	h := NewInvocationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/invocations",
		strings.NewReader(`{"prompt": "x"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.HandleInvoke(rec, r)

	payloads := parseSSE(t, rec.Body.String())
	require.Len(t, payloads, 3)

	var errEvent types.StreamEvent
	require.NoError(t, json.Unmarshal([]byte(payloads[1]), &errEvent))
	assert.Equal(t, types.EventError, errEvent.Type)
	assert.Equal(t, "Error: boom", errEvent.Message)
	assert.Equal(t, "[DONE]", payloads[2])
}
