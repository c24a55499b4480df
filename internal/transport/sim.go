package transport

import (
	"context"
	"sync"
)

// SimDialer is an in-memory Dialer for tests: each Dial call returns the
// next scripted (Conn, error) pair.
type SimDialer struct {
	mu      sync.Mutex
	results []connectResult
	idx     int
}

// NewSimDialer builds a SimDialer that returns each result in order, then
// repeats the last one.
func NewSimDialer(results ...connectResult) *SimDialer {
	return &SimDialer{results: results}
}

func (d *SimDialer) Dial(ctx context.Context, url, token string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.results) == 0 {
		return nil, errNoScriptedResult
	}
	i := d.idx
	if i >= len(d.results) {
		i = len(d.results) - 1
	} else {
		d.idx++
	}
	r := d.results[i]
	return r.conn, r.err
}

type simErr string

func (e simErr) Error() string { return string(e) }

const errNoScriptedResult = simErr("sim: no scripted dial result")

// SimConn is an in-memory Conn for tests: outbound writes are recorded,
// inbound messages are delivered from a scripted queue.
type SimConn struct {
	mu       sync.Mutex
	writes   [][]byte
	inbound  chan string
	closed   bool
	failSend bool
}

// NewSimConn builds a SimConn with the given inbound message queue capacity.
func NewSimConn(inboundBuffer int) *SimConn {
	return &SimConn{inbound: make(chan string, inboundBuffer)}
}

func (c *SimConn) WriteText(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errSimSendFailed
	}
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

const errSimSendFailed = simErr("sim: send failed")

func (c *SimConn) ReadMessage(ctx context.Context) (string, error) {
	select {
	case msg, ok := <-c.inbound:
		if !ok {
			return "", errSimClosed
		}
		return msg, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

const errSimClosed = simErr("sim: connection closed")

func (c *SimConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}
	return nil
}

// PushInbound enqueues a chunk to be delivered on the next ReadMessage.
func (c *SimConn) PushInbound(chunk string) {
	c.inbound <- chunk
}

// Writes returns a snapshot of everything written so far.
func (c *SimConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// SetFailSend makes subsequent WriteText calls fail.
func (c *SimConn) SetFailSend(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSend = fail
}
