package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaDialer dials the coordinator over a real WebSocket connection using
// gorilla/websocket.
type GorillaDialer struct{}

func (GorillaDialer) Dial(ctx context.Context, url, token string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{}
	header.Set("auth_token", token)

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return &gorillaConn{conn: conn}, nil
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (c *gorillaConn) WriteText(ctx context.Context, data []byte) error {
	deadline, ok := ctx.Deadline()
	if ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *gorillaConn) ReadMessage(ctx context.Context) (string, error) {
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if kind != websocket.TextMessage {
		return "", nil
	}
	return string(data), nil
}

func (c *gorillaConn) Close() error {
	return c.conn.Close()
}
