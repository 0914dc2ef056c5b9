package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/types"
)

// Service is the invocation entrypoint: it spawns the orchestrator as
// a background unit of work and hands the caller the lazy event
// stream.
type Service struct {
	orch   *Orchestrator
	logger *zap.Logger
}

// NewService creates the invocation service.
func NewService(orch *Orchestrator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orch: orch, logger: logger}
}

// Invoke starts one invocation and returns its event stream. The
// stream always terminates. A started invocation is not cancellable:
// it runs to natural completion even when the caller stops reading,
// so the queue is detached from the request context.
func (s *Service) Invoke(ctx context.Context, prompt string) <-chan types.StreamEvent {
	q := NewQueue(s.logger)
	go s.orch.Run(context.WithoutCancel(ctx), prompt, q)
	return q.Stream()
}
