package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
)

// CommandKind is the closed set of commands the Supervisor may send the
// relay/program module.
type CommandKind int

const (
	CommandStop CommandKind = iota
	CommandStartZoneAction
	CommandStartProgram
)

// Command is the relay module's command-channel payload.
type Command struct {
	Kind       CommandKind
	ZoneAction *model.ZoneAction
	Program    *model.Program
}

func Stop() Command { return Command{Kind: CommandStop} }

func StartZoneAction(z model.ZoneAction) Command {
	return Command{Kind: CommandStartZoneAction, ZoneAction: &z}
}

func StartProgram(p model.Program) Command {
	return Command{Kind: CommandStartProgram, Program: &p}
}

// singleZoneProgram synthesizes the one-off "Ad-hoc" program a StartZoneAction
// command is wrapped in, matching original_source/esp32/src/relay.rs exactly.
func singleZoneProgram(z model.ZoneAction) model.Program {
	return model.Program{
		ID:        "single",
		Name:      "Ad-hoc",
		Weekdays:  nil,
		StartTime: model.NewClockTime(0, 0, 0),
		Active:    true,
		Zones:     []model.ZoneAction{z},
	}
}

// Module executes at most one Program at a time, sequencing its zones.
type Module struct {
	ctrl *Controller
	bus  *bus.Bus
	cmds chan Command
	tick time.Duration
	log  *zap.Logger

	program      *model.Program
	zoneIndex    int
	hasZoneIndex bool
	zoneStart    time.Time
}

// NewModule builds a relay module and returns it along with the send side of
// its command channel, per the "module is a value, start() consumes it and
// leaves behind a sender" pattern.
func NewModule(ctrl *Controller, b *bus.Bus, tick time.Duration, log *zap.Logger) (*Module, chan<- Command) {
	cmds := make(chan Command, 16)
	return &Module{ctrl: ctrl, bus: b, cmds: cmds, tick: tick, log: log}, cmds
}

// Start runs the module's loop until ctx is cancelled.
func (m *Module) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Module) run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-m.cmds:
			m.handleCommand(ctx, cmd)
		case <-ticker.C:
			m.handleTick(ctx)
		}
	}
}

func (m *Module) clearState() {
	m.program = nil
	m.hasZoneIndex = false
	m.zoneIndex = 0
	m.zoneStart = time.Time{}
}

func (m *Module) publish(ctx context.Context, e model.BoardEvent) {
	if err := m.bus.Publish(ctx, e); err != nil {
		m.log.Warn("dropped event on shutdown", zap.String("event", e.Kind.String()))
	}
}

func (m *Module) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CommandStop:
		m.ctrl.CloseAll()
		m.publish(ctx, model.ProgramStopped())
		m.publish(ctx, model.ZoneActionStopped())
		m.clearState()

	case CommandStartZoneAction:
		z := *cmd.ZoneAction
		m.publish(ctx, model.ZoneActionStarted(z))
		m.ctrl.Open(z.ZoneIDs)
		prog := singleZoneProgram(z)
		m.program = &prog
		m.zoneIndex = 0
		m.hasZoneIndex = true
		m.zoneStart = time.Now()

	case CommandStartProgram:
		p := *cmd.Program
		m.publish(ctx, model.ProgramRunning(p))
		if len(p.Zones) > 0 {
			m.publish(ctx, model.ZoneActionStarted(p.Zones[0]))
			m.ctrl.Open(p.Zones[0].ZoneIDs)
		}
		m.program = &p
		m.zoneIndex = 0
		m.hasZoneIndex = true
		m.zoneStart = time.Now()

	default:
		panic("relay: unhandled CommandKind")
	}
}

func (m *Module) handleTick(ctx context.Context) {
	if m.program == nil || !m.hasZoneIndex {
		return
	}
	if m.zoneIndex >= len(m.program.Zones) {
		return
	}
	zone := m.program.Zones[m.zoneIndex]
	elapsed := time.Since(m.zoneStart)
	if elapsed < time.Duration(zone.DurationSeconds)*time.Second {
		return
	}

	m.ctrl.CloseAll()
	m.publish(ctx, model.ZoneActionStopped())

	nextIndex := m.zoneIndex + 1
	if nextIndex < len(m.program.Zones) {
		next := m.program.Zones[nextIndex]
		m.publish(ctx, model.ZoneActionStarted(next))
		m.ctrl.Open(next.ZoneIDs)
		m.zoneIndex = nextIndex
		m.zoneStart = time.Now()
		return
	}

	m.publish(ctx, model.ProgramStopped())
	m.clearState()
}
