package model

import (
	"encoding/json"
	"fmt"
)

// ServerCommandKind identifies which variant of ServerCommand is populated.
type ServerCommandKind int

const (
	CommandSetNewSchedule ServerCommandKind = iota
	CommandStop
	CommandStartZoneAction
	CommandStartProgram
)

// ServerCommand is the closed set of commands the coordinator may push down
// the WebSocket link. It is encoded on the wire as an externally-tagged JSON
// value: {"SetNewSchedule": {...}}, the bare string "Stop",
// {"StartZoneAction": {...}}, {"StartProgram": "<id>"}.
type ServerCommand struct {
	Kind ServerCommandKind

	Schedule   *Schedule
	ZoneAction *ZoneAction
	ProgramID  string
}

func SetNewSchedule(s Schedule) ServerCommand {
	return ServerCommand{Kind: CommandSetNewSchedule, Schedule: &s}
}

func StopCommand() ServerCommand {
	return ServerCommand{Kind: CommandStop}
}

func StartZoneActionCommand(z ZoneAction) ServerCommand {
	return ServerCommand{Kind: CommandStartZoneAction, ZoneAction: &z}
}

func StartProgramCommand(id string) ServerCommand {
	return ServerCommand{Kind: CommandStartProgram, ProgramID: id}
}

// externally-tagged envelope shapes, one field populated per variant.
type serverCommandEnvelope struct {
	SetNewSchedule *Schedule   `json:"SetNewSchedule,omitempty"`
	StartZoneAction *ZoneAction `json:"StartZoneAction,omitempty"`
	StartProgram    *string     `json:"StartProgram,omitempty"`
}

func (c ServerCommand) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CommandSetNewSchedule:
		return json.Marshal(serverCommandEnvelope{SetNewSchedule: c.Schedule})
	case CommandStop:
		return json.Marshal("Stop")
	case CommandStartZoneAction:
		return json.Marshal(serverCommandEnvelope{StartZoneAction: c.ZoneAction})
	case CommandStartProgram:
		return json.Marshal(serverCommandEnvelope{StartProgram: &c.ProgramID})
	default:
		panic("model: unhandled ServerCommandKind")
	}
}

func (c *ServerCommand) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if bare != "Stop" {
			return fmt.Errorf("model: unknown bare ServerCommand %q", bare)
		}
		*c = StopCommand()
		return nil
	}

	var env serverCommandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("model: invalid ServerCommand: %w", err)
	}

	switch {
	case env.SetNewSchedule != nil:
		*c = SetNewSchedule(*env.SetNewSchedule)
	case env.StartZoneAction != nil:
		*c = StartZoneActionCommand(*env.StartZoneAction)
	case env.StartProgram != nil:
		*c = StartProgramCommand(*env.StartProgram)
	default:
		return fmt.Errorf("model: ServerCommand envelope matched no known variant: %s", data)
	}
	return nil
}
