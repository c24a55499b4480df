// Package transport implements the WebSocket module: uplinks BoardInfo to
// the coordinator and reassembles chunked downlink ServerCommands.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
)

// Conn is the capability this module needs from an established WebSocket
// connection.
type Conn interface {
	WriteText(ctx context.Context, data []byte) error
	// ReadMessage blocks until the next text frame, or returns an error
	// (including on close) once the connection ends.
	ReadMessage(ctx context.Context) (string, error)
	Close() error
}

// Dialer opens a Conn to url, sending auth header "auth_token: token" and
// applying a 10s handshake timeout, per distilled spec §4.6/§6.1.
type Dialer interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}

const handshakeTimeout = 10 * time.Second

// CommandKind is the closed set of commands the Supervisor may send the
// WebSocket module.
type CommandKind int

const (
	CommandNewBoardInfo CommandKind = iota
	CommandConnect
	CommandConnected
	CommandDisconnected
)

// Command is the WebSocket module's command-channel payload.
type Command struct {
	Kind      CommandKind
	BoardInfo *model.BoardInfo
}

func NewBoardInfoCommand(b model.BoardInfo) Command {
	return Command{Kind: CommandNewBoardInfo, BoardInfo: &b}
}
func ConnectCommand() Command     { return Command{Kind: CommandConnect} }
func ConnectedCommand() Command   { return Command{Kind: CommandConnected} }
func DisconnectedCommand() Command { return Command{Kind: CommandDisconnected} }

type frameKind int

const (
	frameText frameKind = iota
	frameStatus
)

type frame struct {
	kind      frameKind
	text      string
	connected bool
}

type connectResult struct {
	conn Conn
	err  error
}

// Module owns one client socket and the single-writer parse buffer used to
// reassemble chunked inbound frames.
type Module struct {
	url, token string
	dialer     Dialer
	bus        *bus.Bus
	cmds       chan Command
	pollEvery  time.Duration
	log        *zap.Logger

	conn       Conn
	connecting bool
	sendBuffer []model.BoardInfo
	parseBuf   strings.Builder

	frameCh   chan frame
	connectCh chan connectResult
}

// NewModule builds a WebSocket module and returns it along with the send
// side of its command channel.
func NewModule(dialer Dialer, url, token string, b *bus.Bus, pollEvery time.Duration, log *zap.Logger) (*Module, chan<- Command) {
	cmds := make(chan Command, 32)
	return &Module{
		url: url, token: token, dialer: dialer, bus: b, cmds: cmds, pollEvery: pollEvery, log: log,
		frameCh:   make(chan frame, 32),
		connectCh: make(chan connectResult, 1),
	}, cmds
}

// Start runs the module's loop until ctx is cancelled.
func (m *Module) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Module) publish(ctx context.Context, e model.BoardEvent) {
	if err := m.bus.Publish(ctx, e); err != nil {
		m.log.Warn("dropped event on shutdown", zap.String("event", e.Kind.String()))
	}
}

func (m *Module) run(ctx context.Context) {
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()
	defer func() {
		if m.conn != nil {
			_ = m.conn.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-m.cmds:
			m.handleCommand(ctx, cmd)
		case fr := <-m.frameCh:
			m.handleFrame(ctx, fr)
		case res := <-m.connectCh:
			m.handleConnectResult(ctx, res)
		case <-ticker.C:
			m.handlePeriodic(ctx)
		}
	}
}

func (m *Module) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CommandNewBoardInfo:
		m.sendOrBuffer(ctx, *cmd.BoardInfo)

	case CommandConnect:
		if m.connecting {
			return
		}
		m.connecting = true
		go m.attemptConnect(ctx)

	case CommandConnected:
		m.drainSendBuffer(ctx)

	case CommandDisconnected:
		m.conn = nil
		m.connecting = false

	default:
		panic("transport: unhandled CommandKind")
	}
}

func (m *Module) sendOrBuffer(ctx context.Context, b model.BoardInfo) {
	data, err := json.Marshal(b)
	if err != nil {
		m.log.Error("failed to serialize BoardInfo", zap.Error(err))
		return
	}
	if m.conn == nil {
		m.sendBuffer = append(m.sendBuffer, b)
		return
	}
	if err := m.conn.WriteText(ctx, data); err != nil {
		m.log.Info("failed to send BoardInfo, buffering", zap.Error(err))
		m.sendBuffer = append(m.sendBuffer, b)
		return
	}
	m.log.Info("BoardInfo sent successfully")
}

func (m *Module) drainSendBuffer(ctx context.Context) {
	pending := m.sendBuffer
	m.sendBuffer = nil
	for _, b := range pending {
		m.sendOrBuffer(ctx, b)
	}
}

func (m *Module) attemptConnect(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	conn, err := m.dialer.Dial(dialCtx, m.url, m.token)
	select {
	case m.connectCh <- connectResult{conn: conn, err: err}:
	case <-ctx.Done():
	}
}

func (m *Module) handleConnectResult(ctx context.Context, res connectResult) {
	m.connecting = false
	if res.err != nil {
		m.log.Info("failed to connect WebSocket client", zap.Error(res.err))
		m.conn = nil
		m.publish(ctx, model.WsStatusChanged(false))
		return
	}
	m.conn = res.conn
	m.publish(ctx, model.WsStatusChanged(true))
	go m.readLoop(ctx, res.conn)
}

// readLoop is the "transport callback" from the distilled spec: it never
// touches the parse buffer itself, only forwards frames to the single
// consumer (the module's run loop) that owns it.
func (m *Module) readLoop(ctx context.Context, conn Conn) {
	for {
		text, err := conn.ReadMessage(ctx)
		if err != nil {
			select {
			case m.frameCh <- frame{kind: frameStatus, connected: false}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case m.frameCh <- frame{kind: frameText, text: text}:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Module) handleFrame(ctx context.Context, fr frame) {
	switch fr.kind {
	case frameStatus:
		m.conn = nil
		m.publish(ctx, model.WsStatusChanged(fr.connected))

	case frameText:
		m.parseBuf.WriteString(fr.text)
		var cmd model.ServerCommand
		err := json.Unmarshal([]byte(m.parseBuf.String()), &cmd)
		switch {
		case err == nil:
			m.publish(ctx, model.ServerCommandArrived(cmd))
			m.parseBuf.Reset()
		case isPartialJSON(err):
			// Keep accumulating; more chunks are expected.
		default:
			m.log.Error("WebSocket JSON parse error, dropping buffer", zap.Error(err))
			m.parseBuf.Reset()
		}

	default:
		panic("transport: unhandled frameKind")
	}
}

func (m *Module) handlePeriodic(ctx context.Context) {
	if m.conn == nil && !m.connecting {
		m.publish(ctx, model.WsStatusChanged(false))
	}
}

// isPartialJSON reports whether err indicates the buffered text is a
// truncated prefix of a JSON document rather than genuinely malformed,
// mirroring serde_json's Error::is_eof check in the original source.
func isPartialJSON(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	return strings.Contains(err.Error(), "unexpected end of JSON input")
}
