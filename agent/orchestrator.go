package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/auth"
	"github.com/BaSui01/wikiflow/internal/channel"
	"github.com/BaSui01/wikiflow/internal/metrics"
	"github.com/BaSui01/wikiflow/types"
)

// Queue is the event queue type owned by one invocation.
type Queue = channel.Queue[types.StreamEvent]

// NewQueue creates the event queue for one invocation.
func NewQueue(logger *zap.Logger) *Queue {
	return channel.NewQueue[types.StreamEvent](logger)
}

// Authenticator is the authentication gate boundary consumed by the
// orchestrator.
type Authenticator interface {
	Authenticate(ctx context.Context, emit auth.Emitter, toolName string) bool
}

// Orchestrator runs one invocation end to end: task, classification,
// authentication gate, single retry, stream termination.
type Orchestrator struct {
	task      Task
	gate      Authenticator
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator. The collector may be nil.
func NewOrchestrator(task Task, gate Authenticator, collector *metrics.Collector, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		task:      task,
		gate:      gate,
		collector: collector,
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
}

// recordingEmitter forwards events to the queue and counts them.
type recordingEmitter struct {
	q         *Queue
	collector *metrics.Collector
}

func (e recordingEmitter) Put(ev types.StreamEvent) {
	e.collector.RecordStreamEvent(string(ev.Type))
	e.q.Put(ev)
}

// Run executes one invocation and always finishes the queue: on
// success, on a classified auth failure, and on any error or panic
// escaping the task or the gate.
func (o *Orchestrator) Run(ctx context.Context, prompt string, q *Queue) {
	id := uuid.NewString()
	logger := o.logger.With(zap.String("invocation_id", id))
	emit := recordingEmitter{q: q, collector: o.collector}

	start := time.Now()
	state := StateInit
	outcome := metrics.OutcomeError

	advance := func(to State) {
		if !CanTransition(state, to) {
			logger.Error("state machine violation",
				zap.Error(ErrInvalidTransition{From: state, To: to}))
		}
		logger.Debug("state transition",
			zap.String("from", string(state)),
			zap.String("to", string(to)))
		state = to
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("invocation panicked", zap.Any("recover", r))
			emit.Put(types.ErrorEvent(fmt.Sprintf("Error: %v", r)))
		}
		advance(StateClosed)
		q.Finish()
		o.collector.RecordInvocation(outcome, time.Since(start))
		logger.Info("invocation closed",
			zap.String("outcome", outcome),
			zap.Duration("duration", time.Since(start)))
	}()

	// The retry budget makes the single re-auth+retry cycle an
	// explicit policy: it is spent once and never refilled, so a
	// retry whose result is again classified as needing auth is
	// returned as-is.
	retryBudget := 1
	attempt := 1

	advance(StateExecuting)
	emit.Put(types.StatusEvent("Begin agent execution"))

	o.collector.RecordTaskAttempt(attempt)
	result, err := o.task.Invoke(ctx, prompt)
	if err != nil {
		logger.Error("task failed", zap.Error(err))
		emit.Put(types.ErrorEvent(fmt.Sprintf("Error: %v", err)))
		return
	}

	if auth.NeedsAuthentication(result.Text) && retryBudget > 0 {
		advance(StateNeedsAuth)
		advance(StateAuthenticating)

		authenticated := o.gate.Authenticate(ctx, emit, result.AuthTool)
		o.collector.RecordAuthAttempt(authenticated)

		if authenticated {
			retryBudget--
			attempt++
			advance(StateRetrying)

			o.collector.RecordTaskAttempt(attempt)
			retried, err := o.task.Invoke(ctx, prompt)
			if err != nil {
				logger.Error("retried task failed", zap.Error(err))
				emit.Put(types.ErrorEvent(fmt.Sprintf("Error: %v", err)))
				return
			}
			result = retried
		} else {
			advance(StateAuthFailed)
			outcome = metrics.OutcomeAuthFailed
			logger.Warn("authentication failed, returning unauthenticated result")
		}
	}

	if state != StateAuthFailed {
		advance(StateSucceeded)
		outcome = metrics.OutcomeSuccess
	}

	usage := result.Usage
	emit.Put(types.ResultEvent(&types.InvocationResult{
		Text:    result.Text,
		Model:   result.Model,
		Attempt: attempt,
		Usage:   &usage,
	}))
	emit.Put(types.StatusEvent("End agent execution"))
}
