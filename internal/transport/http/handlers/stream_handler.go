package handlers

import (
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/gofiber/contrib/websocket"
)

const pushWriteWait = 10 * time.Second

// StreamHandler pushes board snapshots to websocket clients: the current one on
// connect, then the latest after every change. Slow clients skip intermediate
// snapshots.
type StreamHandler struct {
	view   ports.BoardView
	logger *logger.Logger
}

func NewStreamHandler(view ports.BoardView, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{view: view, logger: logger}
}

func (h *StreamHandler) Handle(c *websocket.Conn) {
	id, updates := h.view.Subscribe()
	defer h.view.Unsubscribe(id)
	h.logger.Infow("board_ws_connected", "subscriber", id, "remote", c.RemoteAddr().String())

	// The client never sends anything we use; reading detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.push(c, h.view.Snapshot()); err != nil {
		h.logger.Warnw("board_ws_write_failed", "subscriber", id, "error", err)
		return
	}

	for {
		select {
		case <-gone:
			h.logger.Infow("board_ws_disconnected", "subscriber", id)
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.push(c, snap); err != nil {
				h.logger.Warnw("board_ws_write_failed", "subscriber", id, "error", err)
				return
			}
		}
	}
}

func (h *StreamHandler) push(c *websocket.Conn, v any) error {
	if err := c.SetWriteDeadline(time.Now().Add(pushWriteWait)); err != nil {
		return err
	}
	return c.WriteJSON(v)
}
