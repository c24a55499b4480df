package model

import (
	"time"

	"github.com/google/uuid"
)

// BoardEventKind identifies which variant of BoardEvent is populated. It is a
// closed set: every switch over Kind in this module must be exhaustive, and
// should end in a default branch that panics rather than silently ignoring a
// new variant.
type BoardEventKind int

const (
	EventScheduleUpdated BoardEventKind = iota
	EventScheduleLoaded
	EventProgramStarted
	EventProgramRunning
	EventProgramStopped
	EventZoneActionStarted
	EventZoneActionStopped
	EventDateTimeUpdated
	EventWsStatusChanged
	EventWifiStatusChanged
	EventServerCommandArrived
)

func (k BoardEventKind) String() string {
	switch k {
	case EventScheduleUpdated:
		return "ScheduleUpdated"
	case EventScheduleLoaded:
		return "ScheduleLoaded"
	case EventProgramStarted:
		return "ProgramStarted"
	case EventProgramRunning:
		return "ProgramRunning"
	case EventProgramStopped:
		return "ProgramStopped"
	case EventZoneActionStarted:
		return "ZoneActionStarted"
	case EventZoneActionStopped:
		return "ZoneActionStopped"
	case EventDateTimeUpdated:
		return "DateTimeUpdated"
	case EventWsStatusChanged:
		return "WsStatusChanged"
	case EventWifiStatusChanged:
		return "WifiStatusChanged"
	case EventServerCommandArrived:
		return "ServerCommandArrived"
	default:
		panic("model: unhandled BoardEventKind")
	}
}

// BoardEvent is the tagged-union message every worker publishes to the
// Supervisor over the Event Bus. Only the fields relevant to Kind are
// populated; the rest are zero.
type BoardEvent struct {
	ID   uuid.UUID
	Kind BoardEventKind

	Version    int
	Program    *Program
	ZoneAction *ZoneAction
	Time       time.Time
	Connected  bool
	Command    ServerCommand
}

func newEvent(kind BoardEventKind) BoardEvent {
	return BoardEvent{ID: uuid.New(), Kind: kind}
}

func ScheduleUpdated(version int) BoardEvent {
	e := newEvent(EventScheduleUpdated)
	e.Version = version
	return e
}

func ScheduleLoaded(version int) BoardEvent {
	e := newEvent(EventScheduleLoaded)
	e.Version = version
	return e
}

func ProgramStarted(p Program) BoardEvent {
	e := newEvent(EventProgramStarted)
	e.Program = &p
	return e
}

func ProgramRunning(p Program) BoardEvent {
	e := newEvent(EventProgramRunning)
	e.Program = &p
	return e
}

func ProgramStopped() BoardEvent {
	return newEvent(EventProgramStopped)
}

func ZoneActionStarted(z ZoneAction) BoardEvent {
	e := newEvent(EventZoneActionStarted)
	e.ZoneAction = &z
	return e
}

func ZoneActionStopped() BoardEvent {
	return newEvent(EventZoneActionStopped)
}

func DateTimeUpdated(t time.Time) BoardEvent {
	e := newEvent(EventDateTimeUpdated)
	e.Time = t
	return e
}

func WsStatusChanged(connected bool) BoardEvent {
	e := newEvent(EventWsStatusChanged)
	e.Connected = connected
	return e
}

func WifiStatusChanged(connected bool) BoardEvent {
	e := newEvent(EventWifiStatusChanged)
	e.Connected = connected
	return e
}

func ServerCommandArrived(cmd ServerCommand) BoardEvent {
	e := newEvent(EventServerCommandArrived)
	e.Command = cmd
	return e
}
