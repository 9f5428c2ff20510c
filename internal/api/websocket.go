package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ashureev/cleia/internal/elicitation"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	chatReadLimit    = 1 << 20
	chatWriteTimeout = 10 * time.Second
)

// ChatSocketHandler runs chat turns over a WebSocket bound to one session.
type ChatSocketHandler struct {
	svc            *elicitation.Service
	originPatterns []string
}

// NewChatSocketHandler creates a new WebSocket chat handler. allowedOrigins
// uses the same values as the CORS configuration.
func NewChatSocketHandler(svc *elicitation.Service, allowedOrigins []string) *ChatSocketHandler {
	return &ChatSocketHandler{svc: svc, originPatterns: originPatterns(allowedOrigins)}
}

// chatFrame is a client frame. Type "ping" is answered with "pong"; any
// other frame must carry a message.
type chatFrame struct {
	Type    string  `json:"type,omitempty"`
	Message *string `json:"message,omitempty"`
}

type chatFrameReply struct {
	Type   string `json:"type,omitempty"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if err := h.svc.CheckSession(r.Context(), sessionID); err != nil {
		serviceError(w, r, "Rejected chat socket", err)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()
	ws.SetReadLimit(chatReadLimit)

	slog.Info("Chat socket opened", "session_id", sessionID, "ip", r.RemoteAddr)
	h.readLoop(r.Context(), ws, sessionID)
	slog.Info("Chat socket closed", "session_id", sessionID)
}

func (h *ChatSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		var frame chatFrame
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed by client", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		if err := h.write(ctx, ws, h.handleFrame(ctx, sessionID, frame)); err != nil {
			slog.Debug("WebSocket write error", "error", err, "session_id", sessionID)
			return
		}
	}
}

func (h *ChatSocketHandler) handleFrame(ctx context.Context, sessionID string, frame chatFrame) chatFrameReply {
	if frame.Type == "ping" {
		return chatFrameReply{Type: "pong"}
	}
	if frame.Message == nil {
		return chatFrameReply{Error: "message is required", Status: http.StatusBadRequest}
	}

	reply, err := h.svc.HandleMessage(ctx, sessionID, *frame.Message)
	if err != nil {
		status, message := errorStatus(err)
		slog.Error("Chat turn failed", "error", err, "status", status, "session_id", sessionID)
		return chatFrameReply{Error: message, Status: status}
	}
	return chatFrameReply{Reply: reply}
}

func (h *ChatSocketHandler) write(ctx context.Context, ws *websocket.Conn, v chatFrameReply) error {
	ctx, cancel := context.WithTimeout(ctx, chatWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, v)
}

// originPatterns converts CORS origins to host patterns for the upgrader.
func originPatterns(allowed []string) []string {
	patterns := make([]string, 0, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
