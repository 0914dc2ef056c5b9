package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/api"
)

// WSHandler serves agent invocations over a WebSocket connection. The
// client sends one InvokeRequest message and receives the event
// stream, then the server closes the connection.
type WSHandler struct {
	service Invoker
	logger  *zap.Logger
}

// NewWSHandler creates the WebSocket invocation handler.
func NewWSHandler(service Invoker, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{service: service, logger: logger}
}

// HandleWS upgrades the connection and streams one invocation.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var req api.InvokeRequest
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = wsjson.Read(readCtx, conn, &req)
	cancel()
	if err != nil {
		h.logger.Warn("websocket read failed", zap.Error(err))
		conn.Close(websocket.StatusPolicyViolation, "expected an invoke request")
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = defaultPrompt
	}

	events := h.service.Invoke(ctx, prompt)

	clientGone := false
	for ev := range events {
		if clientGone {
			continue
		}
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			clientGone = true
		}
	}

	if !clientGone {
		conn.Close(websocket.StatusNormalClosure, "stream complete")
	}
}
