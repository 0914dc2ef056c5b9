package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/wikiflow/auth"
	"github.com/BaSui01/wikiflow/types"
)

// scriptedTask returns canned results in call order.
type scriptedTask struct {
	mu      sync.Mutex
	results []*TaskResult
	errs    []error
	panics  []any
	calls   int
	prompts []string
}

func (t *scriptedTask) Invoke(_ context.Context, prompt string) (*TaskResult, error) {
	t.mu.Lock()
	i := t.calls
	t.calls++
	t.prompts = append(t.prompts, prompt)
	t.mu.Unlock()

	if i < len(t.panics) && t.panics[i] != nil {
		panic(t.panics[i])
	}
	if i < len(t.errs) && t.errs[i] != nil {
		return nil, t.errs[i]
	}
	if i >= len(t.results) {
		return nil, errors.New("script exhausted")
	}
	return t.results[i], nil
}

func (t *scriptedTask) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// stubGate records the tool name it was asked about and optionally
// emits events the way the real gate does.
type stubGate struct {
	mu     sync.Mutex
	tools  []string
	ok     bool
	emitFn func(emit auth.Emitter)
}

func (g *stubGate) Authenticate(_ context.Context, emit auth.Emitter, toolName string) bool {
	g.mu.Lock()
	g.tools = append(g.tools, toolName)
	g.mu.Unlock()
	if g.emitFn != nil {
		g.emitFn(emit)
	}
	return g.ok
}

func (g *stubGate) toolNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.tools...)
}

// drain reads the whole event stream; it fails the test if the stream
// does not terminate.
func drain(t *testing.T, events <-chan types.StreamEvent) []types.StreamEvent {
	t.Helper()
	var got []types.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("event stream did not terminate")
		}
	}
}

const authNeededText = "Authentication required: please authorize access to Confluence."

func TestOrchestrator_SuccessWithoutAuth(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{results: []*TaskResult{
		{Text: "All done.", Model: "gpt-4o", Usage: types.TokenUsage{TotalTokens: 12}},
	}}
	gate := &stubGate{ok: true}
	orch := NewOrchestrator(task, gate, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "do the thing", q)
	events := drain(t, q.Stream())

	require.Len(t, events, 3)
	assert.Equal(t, types.EventStatus, events[0].Type)
	assert.Equal(t, "Begin agent execution", events[0].Message)
	assert.Equal(t, types.EventResult, events[1].Type)
	require.NotNil(t, events[1].Result)
	assert.Equal(t, "All done.", events[1].Result.Text)
	assert.Equal(t, 1, events[1].Result.Attempt)
	require.NotNil(t, events[1].Result.Usage)
	assert.Equal(t, 12, events[1].Result.Usage.TotalTokens)
	assert.Equal(t, types.EventStatus, events[2].Type)
	assert.Equal(t, "End agent execution", events[2].Message)

	assert.Equal(t, 1, task.callCount())
	assert.Empty(t, gate.toolNames())
}

func TestOrchestrator_AuthSuccessRetriesOnce(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{results: []*TaskResult{
		{Text: authNeededText, AuthTool: "search_confluence_by_text"},
		{Text: "Found 3 pages.", Model: "gpt-4o"},
	}}
	gate := &stubGate{ok: true}
	orch := NewOrchestrator(task, gate, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "find the runbook", q)
	events := drain(t, q.Stream())

	require.Len(t, events, 3)
	result := events[1].Result
	require.NotNil(t, result)
	assert.Equal(t, "Found 3 pages.", result.Text)
	assert.Equal(t, 2, result.Attempt)
	assert.Equal(t, "End agent execution", events[2].Message)

	assert.Equal(t, 2, task.callCount())
	assert.Equal(t, []string{"search_confluence_by_text"}, gate.toolNames())
	// Both attempts see the same prompt.
	assert.Equal(t, []string{"find the runbook", "find the runbook"}, task.prompts)
}

func TestOrchestrator_AuthFailureReturnsOriginalResult(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{results: []*TaskResult{
		{Text: authNeededText, AuthTool: "get_confluence_page"},
	}}
	gate := &stubGate{ok: false}
	orch := NewOrchestrator(task, gate, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "show the page", q)
	events := drain(t, q.Stream())

	require.Len(t, events, 3)
	result := events[1].Result
	require.NotNil(t, result)
	assert.Equal(t, authNeededText, result.Text)
	assert.Equal(t, 1, result.Attempt)

	assert.Equal(t, 1, task.callCount())
	assert.Equal(t, []string{"get_confluence_page"}, gate.toolNames())
}

func TestOrchestrator_GateEventsArriveInOrder(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{results: []*TaskResult{
		{Text: authNeededText, AuthTool: "search_confluence_by_text"},
		{Text: "Done after auth."},
	}}
	gate := &stubGate{
		ok: true,
		emitFn: func(emit auth.Emitter) {
			emit.Put(types.StatusEvent("Authentication required for search_confluence_by_text access. Starting authorization flow..."))
			emit.Put(types.AuthURLEvent("https://auth.example.com/consent/abc"))
			emit.Put(types.StatusEvent("Authentication successful! Atlassian Cloud ID: cloud-1"))
		},
	}
	orch := NewOrchestrator(task, gate, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "search", q)
	events := drain(t, q.Stream())

	require.Len(t, events, 6)
	assert.Equal(t, "Begin agent execution", events[0].Message)
	assert.Contains(t, events[1].Message, "Starting authorization flow")
	assert.Equal(t, types.EventAuthURL, events[2].Type)
	assert.Equal(t, "https://auth.example.com/consent/abc", events[2].AuthURL)
	assert.Contains(t, events[3].Message, "Authentication successful")
	assert.Equal(t, types.EventResult, events[4].Type)
	assert.Equal(t, "End agent execution", events[5].Message)
}

func TestOrchestrator_RetryStillNeedingAuthIsReturnedAsIs(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{results: []*TaskResult{
		{Text: authNeededText, AuthTool: "search_confluence_by_text"},
		{Text: authNeededText, AuthTool: "search_confluence_by_text"},
	}}
	gate := &stubGate{ok: true}
	orch := NewOrchestrator(task, gate, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "search", q)
	events := drain(t, q.Stream())

	// No second gate run, no third attempt: the retry result stands.
	require.Len(t, events, 3)
	result := events[1].Result
	require.NotNil(t, result)
	assert.Equal(t, authNeededText, result.Text)
	assert.Equal(t, 2, result.Attempt)

	assert.Equal(t, 2, task.callCount())
	assert.Len(t, gate.toolNames(), 1)
}

func TestOrchestrator_TaskErrorTerminatesStream(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{errs: []error{errors.New("boom")}}
	orch := NewOrchestrator(task, &stubGate{ok: true}, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "do it", q)
	events := drain(t, q.Stream())

	require.Len(t, events, 2)
	assert.Equal(t, "Begin agent execution", events[0].Message)
	assert.Equal(t, types.EventError, events[1].Type)
	assert.Equal(t, "Error: boom", events[1].Message)
}

func TestOrchestrator_RetryErrorTerminatesStream(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{
		results: []*TaskResult{{Text: authNeededText, AuthTool: "tool"}},
		errs:    []error{nil, errors.New("retry failed")},
	}
	orch := NewOrchestrator(task, &stubGate{ok: true}, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "do it", q)
	events := drain(t, q.Stream())

	last := events[len(events)-1]
	assert.Equal(t, types.EventError, last.Type)
	assert.Equal(t, "Error: retry failed", last.Message)
	assert.Equal(t, 2, task.callCount())
}

func TestOrchestrator_PanicTerminatesStream(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{panics: []any{"kaboom"}}
	orch := NewOrchestrator(task, &stubGate{}, nil, nil)

	q := NewQueue(nil)
	orch.Run(context.Background(), "do it", q)
	events := drain(t, q.Stream())

	require.Len(t, events, 2)
	assert.Equal(t, types.EventError, events[1].Type)
	assert.Contains(t, events[1].Message, "kaboom")
}

func TestService_BackToBackInvocationsAreIndependent(t *testing.T) {
	t.Parallel()

	task := &scriptedTask{results: []*TaskResult{
		{Text: "first answer"},
		{Text: "second answer"},
	}}
	orch := NewOrchestrator(task, &stubGate{ok: true}, nil, nil)
	svc := NewService(orch, nil)

	first := drain(t, svc.Invoke(context.Background(), "one"))
	second := drain(t, svc.Invoke(context.Background(), "two"))

	require.Len(t, first, 3)
	require.Len(t, second, 3)
	assert.Equal(t, "first answer", first[1].Result.Text)
	assert.Equal(t, "second answer", second[1].Result.Text)
	assert.Equal(t, 1, first[1].Result.Attempt)
	assert.Equal(t, 1, second[1].Result.Attempt)
}

func TestService_RunsToCompletionAfterCallerContextCancelled(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	task := TaskFunc(func(ctx context.Context, _ string) (*TaskResult, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &TaskResult{Text: "survived cancellation"}, nil
	})
	orch := NewOrchestrator(task, &stubGate{}, nil, nil)
	svc := NewService(orch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := svc.Invoke(ctx, "long job")

	<-started
	cancel()
	close(release)

	got := drain(t, events)
	require.Len(t, got, 3)
	assert.Equal(t, "survived cancellation", got[1].Result.Text)
}
