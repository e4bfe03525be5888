package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marceloacosta/un-translator/internal/protocol"
)

const (
	// Time allowed to write a message to the client.
	writeTimeout = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to the client with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second

	// Maximum inbound frame size. Generous enough for base64 audio chunks.
	maxMessageSize = 1 << 20
)

// wsSink delivers session output over the client's WebSocket connection.
// The write mutex serializes the relay goroutine and the read loop.
type wsSink struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSink) Send(msg *protocol.ServerMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSink) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// upgrader builds the WebSocket upgrader from server configuration.
// Origin checks are left to the deployment's reverse proxy.
func (h *HTTPServer) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  h.config.Server.ReadBufferSize,
		WriteBufferSize: h.config.Server.WriteBufferSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

// handleTranslate implements the /ws/translate endpoint. The connection's
// session, if one gets started, is torn down when the connection closes.
func (h *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	connID := uuid.NewString()
	logger := h.logger.With(slog.String("conn_id", connID))
	logger.Info("Client connected", slog.String("remote_addr", r.RemoteAddr))
	h.metrics.RecordConnectionOpened()

	sink := &wsSink{conn: conn}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.sessionMgr.RemoveSession(ctx, connID)

		conn.Close()
		h.metrics.RecordConnectionClosed()
		logger.Info("Client disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Keepalive pings until the read loop exits.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := sink.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Connection read error", slog.String("error", err.Error()))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			h.forwardPCM(r.Context(), logger, connID, data)

		case websocket.TextMessage:
			h.dispatchControl(r.Context(), logger, connID, sink, data)
		}
	}
}

// forwardPCM forwards one raw audio chunk to the connection's session.
// Audio without an active session is dropped silently. A forwarding
// failure abandons the session, so the connection is unbound from it.
func (h *HTTPServer) forwardPCM(ctx context.Context, logger *slog.Logger, connID string, pcm []byte) {
	s, exists := h.sessionMgr.GetSession(connID)
	if !exists {
		return
	}

	if err := s.ForwardAudio(ctx, pcm); err != nil {
		logger.Error("Audio forwarding failed", slog.String("error", err.Error()))

		removeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.sessionMgr.RemoveSession(removeCtx, connID)
	}
}

// dispatchControl handles one JSON control frame. Malformed or
// out-of-place frames are logged and dropped without a reply.
func (h *HTTPServer) dispatchControl(ctx context.Context, logger *slog.Logger, connID string, sink *wsSink, data []byte) {
	msg, err := protocol.ParseClientMessage(data)
	if err != nil {
		logger.Debug("Dropping malformed control frame", slog.String("error", err.Error()))
		return
	}

	switch msg.Type {
	case protocol.TypeStartSession:
		if _, err := h.sessionMgr.CreateSession(ctx, connID, msg.SourceLang, msg.TargetLang, sink); err != nil {
			logger.Error("Session start failed", slog.String("error", err.Error()))
			if sendErr := sink.Send(protocol.NewError("failed to start translation session")); sendErr != nil {
				logger.Debug("Failed to deliver start error", slog.String("error", sendErr.Error()))
			}
		}

	case protocol.TypeAudioChunk:
		pcm, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			logger.Debug("Dropping audio chunk with invalid base64", slog.String("error", err.Error()))
			return
		}
		h.forwardPCM(ctx, logger, connID, pcm)

	case protocol.TypeEndSession:
		removeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		h.sessionMgr.RemoveSession(removeCtx, connID)

	case protocol.TypePing:
		if err := sink.Send(protocol.NewPong()); err != nil {
			logger.Debug("Failed to deliver pong", slog.String("error", err.Error()))
		}
	}
}

// handleEcho implements the /ws/echo endpoint: every frame comes straight
// back, preserving its type.
func (h *HTTPServer) handleEcho(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(msgType, data); err != nil {
			return
		}
	}
}
