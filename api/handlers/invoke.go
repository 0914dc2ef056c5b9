package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/api"
	"github.com/BaSui01/wikiflow/types"
)

// defaultPrompt replaces a missing prompt so an invocation always has
// an input to run with.
const defaultPrompt = "No prompt found in input"

// Invoker starts an invocation and returns its event stream. The
// returned channel always terminates.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) <-chan types.StreamEvent
}

// InvocationHandler serves agent invocations.
type InvocationHandler struct {
	service Invoker
	logger  *zap.Logger
}

// NewInvocationHandler creates the invocation handler.
func NewInvocationHandler(service Invoker, logger *zap.Logger) *InvocationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvocationHandler{service: service, logger: logger}
}

// HandleInvoke runs one invocation and streams its events as SSE.
// Each event is one `data:` line carrying the event JSON; the stream
// ends with a `data: [DONE]` marker.
func (h *InvocationHandler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.InvokeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = defaultPrompt
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		err := types.NewError(types.ErrInternalError, "streaming not supported")
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	start := time.Now()
	events := h.service.Invoke(r.Context(), prompt)

	// The stream must be drained to completion even when the client
	// goes away: the invocation keeps producing until it finishes.
	clientGone := false
	count := 0
	for ev := range events {
		count++
		if clientGone {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("failed to marshal event", zap.Error(err))
			continue
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			clientGone = true
			continue
		}
		w.Write(payload)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	if !clientGone {
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}

	h.logger.Info("invocation stream completed",
		zap.Int("events", count),
		zap.Bool("client_gone", clientGone),
		zap.Duration("duration", time.Since(start)),
	)
}
