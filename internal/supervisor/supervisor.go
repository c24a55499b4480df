// Package supervisor implements the BoardInfo aggregator: the sole owner of
// authoritative BoardInfo state, the event router, and the command fan-out
// back to the worker modules.
package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
	"github.com/mezeipetister/irrigation-controller/internal/relay"
	"github.com/mezeipetister/irrigation-controller/internal/schedule"
	"github.com/mezeipetister/irrigation-controller/internal/transport"
	"github.com/mezeipetister/irrigation-controller/internal/wifi"
)

// Workers bundles the send side of every module's command channel, so the
// Supervisor can route without depending on how each module is constructed.
type Workers struct {
	Relay     chan<- relay.Command
	Schedule  chan<- schedule.Command
	Wifi      chan<- wifi.Command
	Transport chan<- transport.Command
}

// Supervisor owns the only mutable BoardInfo and routes BoardEvents to
// worker command channels. No other component reads or writes BoardInfo.
type Supervisor struct {
	bus     *bus.Bus
	workers Workers
	log     *zap.Logger

	healthEvery time.Duration

	info model.BoardInfo
}

// New builds a Supervisor seeded with the device's identity and owned zones;
// everything else in BoardInfo starts zero until the first relevant event.
func New(deviceID string, zones []string, b *bus.Bus, workers Workers, healthEvery time.Duration, log *zap.Logger) *Supervisor {
	return &Supervisor{
		bus:         b,
		workers:     workers,
		log:         log,
		healthEvery: healthEvery,
		info:        model.BoardInfo{DeviceID: deviceID, Zones: zones},
	}
}

// Run consumes the event bus until ctx is cancelled, applying each event to
// BoardInfo, resyncing the coordinator on change, and dispatching the
// event's side effects to worker command channels.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.healthEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.bus.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, e)
		case <-ticker.C:
			s.log.Info("health", zap.Int("bus_depth", s.bus.Depth()))
		}
	}
}

// handleEvent applies one BoardEvent to BoardInfo, resyncs the coordinator
// on a visible change, and performs the event's side effects. Grounded on
// distilled spec §4.1's three numbered steps.
func (s *Supervisor) handleEvent(ctx context.Context, e model.BoardEvent) {
	if changed := applyEvent(&s.info, e); changed {
		s.sendBoardInfo(ctx)
	}
	s.dispatchSideEffects(ctx, e)
}

// applyEvent is the pure BoardInfo transition function: it mutates info in
// place and reports whether a coordinator-visible field changed. Grounded on
// original_source/esp32/src/boardinfo.rs's apply_event.
func applyEvent(info *model.BoardInfo, e model.BoardEvent) bool {
	switch e.Kind {
	case model.EventDateTimeUpdated:
		info.DateTime = e.Time
		return true

	case model.EventScheduleUpdated, model.EventScheduleLoaded:
		if info.ScheduleVersion == e.Version {
			return false
		}
		info.ScheduleVersion = e.Version
		return true

	case model.EventProgramStarted:
		// ProgramStarted only triggers the Relay dispatch side effect; it
		// does not itself toggle running_program (ProgramRunning does, once
		// the relay module has actually taken ownership of the program).
		return false

	case model.EventProgramRunning:
		id := e.Program.ID
		info.RunningProgram = &id
		return true

	case model.EventProgramStopped:
		if info.RunningProgram == nil {
			return false
		}
		info.RunningProgram = nil
		return true

	case model.EventZoneActionStarted:
		z := *e.ZoneAction
		info.RunningZones = &z
		return true

	case model.EventZoneActionStopped:
		if info.RunningZones == nil {
			return false
		}
		info.RunningZones = nil
		return true

	case model.EventWsStatusChanged, model.EventWifiStatusChanged, model.EventServerCommandArrived:
		return false

	default:
		panic("supervisor: unhandled BoardEventKind")
	}
}

func (s *Supervisor) sendBoardInfo(ctx context.Context) {
	select {
	case s.workers.Transport <- transport.NewBoardInfoCommand(s.info.Clone()):
	case <-ctx.Done():
	}
}

// dispatchSideEffects performs the event-kind-bound side effects from
// distilled spec §4.1 step 3. For DateTimeUpdated the Supervisor only keeps
// the BoardInfo mirror applied above: the timekeeper module writes the RTC
// itself after SNTP reconciliation, and the system clock is not set
// anywhere in this repository.
func (s *Supervisor) dispatchSideEffects(ctx context.Context, e model.BoardEvent) {
	switch e.Kind {
	case model.EventDateTimeUpdated:
		// BoardInfo mirror only; no RTC or system-clock write is routed here.

	case model.EventWsStatusChanged:
		if e.Connected {
			s.sendTransport(ctx, transport.ConnectedCommand())
			s.sendBoardInfo(ctx)
		} else {
			s.sendTransport(ctx, transport.DisconnectedCommand())
			s.sendTransport(ctx, transport.ConnectCommand())
		}

	case model.EventWifiStatusChanged:
		if !e.Connected {
			s.sendWifi(ctx, wifi.Connect())
		}

	case model.EventServerCommandArrived:
		s.translateServerCommand(ctx, e.Command)

	case model.EventProgramStarted:
		s.sendRelay(ctx, relay.StartProgram(*e.Program))

	case model.EventScheduleUpdated, model.EventScheduleLoaded,
		model.EventProgramRunning, model.EventProgramStopped,
		model.EventZoneActionStarted, model.EventZoneActionStopped:
		// no side effect beyond the BoardInfo mirror already applied.

	default:
		panic("supervisor: unhandled BoardEventKind")
	}
}

// translateServerCommand implements the distilled spec §4.1 translation
// table from incoming ServerCommand to outgoing worker command.
func (s *Supervisor) translateServerCommand(ctx context.Context, cmd model.ServerCommand) {
	switch cmd.Kind {
	case model.CommandSetNewSchedule:
		s.sendSchedule(ctx, schedule.UpdateSchedule(*cmd.Schedule))
	case model.CommandStop:
		s.sendRelay(ctx, relay.Stop())
	case model.CommandStartZoneAction:
		s.sendRelay(ctx, relay.StartZoneAction(*cmd.ZoneAction))
	case model.CommandStartProgram:
		s.sendSchedule(ctx, schedule.StartProgramByID(cmd.ProgramID))
	default:
		panic("supervisor: unhandled ServerCommandKind")
	}
}

// The sendX helpers honor ctx cancellation instead of blocking forever on a
// full worker command channel during shutdown.

func (s *Supervisor) sendRelay(ctx context.Context, cmd relay.Command) {
	select {
	case s.workers.Relay <- cmd:
	case <-ctx.Done():
	}
}

func (s *Supervisor) sendSchedule(ctx context.Context, cmd schedule.Command) {
	select {
	case s.workers.Schedule <- cmd:
	case <-ctx.Done():
	}
}

func (s *Supervisor) sendWifi(ctx context.Context, cmd wifi.Command) {
	select {
	case s.workers.Wifi <- cmd:
	case <-ctx.Done():
	}
}

func (s *Supervisor) sendTransport(ctx context.Context, cmd transport.Command) {
	select {
	case s.workers.Transport <- cmd:
	case <-ctx.Done():
	}
}
