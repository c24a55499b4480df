// Package wifi implements the WiFi module: maintains association with the
// configured network and reports connectivity transitions.
package wifi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
)

// Radio is the capability this module needs from the WiFi hardware: the
// out-of-scope radio driver (distilled spec §1), assumed available as
// "associate/disconnect/netif-up", grounded on
// original_source/esp32/src/wifi.rs's connect_wifi/is_connected sequence.
type Radio interface {
	IsConnected(ctx context.Context) (bool, error)
	Disconnect(ctx context.Context) error
	Stop(ctx context.Context) error
	// Connect applies a WPA2-personal client configuration, starts the
	// radio, associates, and blocks until the network interface is up.
	Connect(ctx context.Context, ssid, password string) error
}

// CommandKind is the closed set of commands the Supervisor may send the
// WiFi module.
type CommandKind int

const (
	CommandConnect CommandKind = iota
)

// Command is the WiFi module's command-channel payload.
type Command struct {
	Kind CommandKind
}

func Connect() Command { return Command{Kind: CommandConnect} }

// Module owns the radio interface and reports connectivity transitions.
type Module struct {
	radio             Radio
	bus               *bus.Bus
	cmds              chan Command
	ssid, password    string
	pollEvery         time.Duration
	log               *zap.Logger

	connected, connecting bool
}

// NewModule builds a WiFi module and returns it along with the send side of
// its command channel.
func NewModule(radio Radio, b *bus.Bus, ssid, password string, pollEvery time.Duration, log *zap.Logger) (*Module, chan<- Command) {
	cmds := make(chan Command, 8)
	return &Module{radio: radio, bus: b, cmds: cmds, ssid: ssid, password: password, pollEvery: pollEvery, log: log}, cmds
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

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-m.cmds:
			m.handleCommand(ctx, cmd)
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Module) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CommandConnect:
		if m.connecting {
			return
		}
		if err := m.connectWifi(ctx); err != nil {
			m.log.Warn("wifi connect attempt failed", zap.Error(err))
		}
		m.connecting = false
	default:
		panic("wifi: unhandled CommandKind")
	}
}

func (m *Module) connectWifi(ctx context.Context) error {
	m.connecting = true
	m.connected = false

	if already, err := m.radio.IsConnected(ctx); err == nil && already {
		m.log.Info("already connected to WiFi, disconnecting first")
		if err := m.radio.Disconnect(ctx); err != nil {
			return err
		}
		if err := m.radio.Stop(ctx); err != nil {
			return err
		}
	}

	// connected stays false here: the next poll sees the association and
	// reports the false→true transition as WifiStatusChanged{true}.
	return m.radio.Connect(ctx, m.ssid, m.password)
}

func (m *Module) poll(ctx context.Context) {
	isConnected, err := m.radio.IsConnected(ctx)
	if err != nil {
		isConnected = false
	}

	if !isConnected {
		if !m.connecting {
			m.connected = false
			m.publish(ctx, model.WifiStatusChanged(false))
		}
		return
	}

	if !m.connected {
		m.connected = true
		m.publish(ctx, model.WifiStatusChanged(true))
	}
}
