// Package schedule implements the Schedule module: it owns the persisted
// schedule, computes the next firing of a weekly recurrence, and emits
// ProgramStarted when one comes due.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/bus"
	"github.com/mezeipetister/irrigation-controller/internal/model"
	"github.com/mezeipetister/irrigation-controller/internal/storage"
)

// CommandKind is the closed set of commands the Supervisor may send the
// schedule module.
type CommandKind int

const (
	CommandUpdateSchedule CommandKind = iota
	CommandStartProgramByID
)

// Command is the schedule module's command-channel payload.
type Command struct {
	Kind      CommandKind
	Schedule  *model.Schedule
	ProgramID string
}

func UpdateSchedule(s model.Schedule) Command {
	return Command{Kind: CommandUpdateSchedule, Schedule: &s}
}

func StartProgramByID(id string) Command {
	return Command{Kind: CommandStartProgramByID, ProgramID: id}
}

// Module owns the in-memory schedule and its persisted copy.
type Module struct {
	store *storage.Store
	bus   *bus.Bus
	cmds  chan Command
	log   *zap.Logger

	heartbeat   time.Duration
	defaultWait time.Duration
	loc         *time.Location
	now         func() time.Time // overridable for tests

	schedule    model.Schedule
	hasSchedule bool

	pending    model.Program
	hasPending bool
}

// NewModule builds a schedule module and returns it along with the send side
// of its command channel.
func NewModule(store *storage.Store, b *bus.Bus, heartbeat, defaultWait time.Duration, loc *time.Location, log *zap.Logger) (*Module, chan<- Command) {
	cmds := make(chan Command, 16)
	return &Module{
		store:       store,
		bus:         b,
		cmds:        cmds,
		log:         log,
		heartbeat:   heartbeat,
		defaultWait: defaultWait,
		loc:         loc,
		now:         time.Now,
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
	loaded, found, err := m.store.LoadSchedule()
	if err != nil {
		m.log.Error("schedule load failed at boot, starting with no schedule", zap.Error(err))
	} else if found {
		m.schedule = loaded
		m.hasSchedule = true
		m.publish(ctx, model.ScheduleLoaded(loaded.Version))
	}
	// If absent: valid initial state (distilled spec §7 "Missing schedule at
	// start"); nothing to emit, default wait applies below.

	wait := m.resetPending()
	timer := time.NewTimer(wait)
	heartbeat := time.NewTicker(m.heartbeat)
	defer timer.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case cmd := <-m.cmds:
			m.handleCommand(ctx, cmd)
			drainTimer(timer)
			timer.Reset(m.resetPending())

		case <-timer.C:
			if m.hasPending {
				m.publish(ctx, model.ProgramStarted(m.pending))
			}
			timer.Reset(m.resetPending())

		case <-heartbeat.C:
			// Wakes the select purely to preserve the crossbeam-style
			// "wait on the first of {command, timer, heartbeat}" shape; no
			// independent action is required here.
		}
	}
}

func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (m *Module) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CommandUpdateSchedule:
		s := *cmd.Schedule
		if m.hasSchedule && m.schedule.Version == s.Version {
			// Idempotent: unchanged version suppresses resend (distilled
			// spec §9 Open Question, resolved per original_source's
			// apply_event behavior).
			return
		}
		if err := m.store.SaveSchedule(s); err != nil {
			m.log.Error("schedule persist failed, keeping in-memory schedule only", zap.Error(err))
		}
		m.schedule = s
		m.hasSchedule = true
		m.publish(ctx, model.ScheduleUpdated(s.Version))

	case CommandStartProgramByID:
		if !m.hasSchedule {
			m.log.Info("StartProgramById with no schedule loaded, ignoring", zap.String("program_id", cmd.ProgramID))
			return
		}
		p, ok := m.schedule.ProgramByID(cmd.ProgramID)
		if !ok {
			m.log.Info("StartProgramById: unknown program, ignoring", zap.String("program_id", cmd.ProgramID))
			return
		}
		m.publish(ctx, model.ProgramStarted(p))

	default:
		panic("schedule: unhandled CommandKind")
	}
}

// resetPending recomputes the next firing and the wait duration until then,
// remembering the candidate program so the timer branch above can fire it
// without recomputing (guarding against a schedule mutation racing the
// timer between computation and fire, which would be unobservable anyway
// since all of this runs on a single goroutine).
func (m *Module) resetPending() time.Duration {
	p, at, ok := m.nextFiring(m.now())
	m.pending = p
	m.hasPending = ok
	if !ok {
		return m.defaultWait
	}
	wait := at.Sub(m.now())
	if wait < 0 {
		wait = 0
	}
	return wait
}

// nextFiring implements the distilled spec's §4.3 algorithm: scan the next
// seven days, find the earliest active program whose weekday set matches
// that day and whose start time hasn't already passed today, early-exiting
// once day zero has produced a candidate.
func (m *Module) nextFiring(now time.Time) (model.Program, time.Time, bool) {
	if !m.hasSchedule {
		return model.Program{}, time.Time{}, false
	}

	local := now.In(m.loc)
	today := clockTimeOf(local)

	var best time.Time
	var bestProgram model.Program
	found := false

	for addDays := 0; addDays < 7; addDays++ {
		day := local.AddDate(0, 0, addDays)
		wd := model.FromTimeWeekday(day.Weekday())

		for _, p := range m.schedule.Programs {
			if !p.Active || !p.HasWeekday(wd) {
				continue
			}
			if addDays == 0 && p.StartTime.LessOrEqual(today) {
				continue
			}
			candidate := p.StartTime.OnDate(day, m.loc)
			if !found || candidate.Before(best) {
				best = candidate
				bestProgram = p
				found = true
			}
		}

		if found && addDays == 0 {
			break
		}
	}

	return bestProgram, best, found
}

func clockTimeOf(t time.Time) model.ClockTime {
	return model.NewClockTime(t.Hour(), t.Minute(), t.Second())
}
