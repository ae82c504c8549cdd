package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/gorilla/websocket"
)

const closeWriteWait = time.Second

type WebSocketSource struct {
	url       string
	dialer    *websocket.Dialer
	readLimit int64
	log       *logger.Logger
}

func NewWebSocketSource(url string, handshakeTimeout time.Duration, readLimit int64, log *logger.Logger) *WebSocketSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &WebSocketSource{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		readLimit: readLimit,
		log:       log,
	}
}

var _ ports.FrameSource = (*WebSocketSource)(nil)

func (s *WebSocketSource) Name() string { return "websocket" }

func (s *WebSocketSource) Dial(ctx context.Context) (ports.FrameConn, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", s.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}
	s.log.Infow("stream_connected", "source", s.Name(), "url", s.url)
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
	once sync.Once
	err  error
}

// ReadFrame returns the next text or binary message. Close frames from the
// peer surface as *websocket.CloseError.
func (c *wsConn) ReadFrame(ctx context.Context) ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		c.err = c.conn.Close()
	})
	return c.err
}
