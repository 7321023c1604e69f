// Operator command variants and their allow-lists.
//
// Each command role names a closed variant; a payload is only accepted when
// its "command" discriminator is in that variant's allow-list. This keeps a
// flight command sent under the utility role from decoding into a
// structurally valid but semantically wrong command.
package command

import (
	"encoding/json"
	"fmt"
	"slices"

	"droneops-gateway/internal/telemetry"
)

// Role discriminators carried in the envelope's "role" field.
const (
	RoleFlight             = "FlightCommand"
	RoleUtility            = "UtilityCommand"
	RoleStartMission       = "StartMissionCommand"
	RoleVirtualSticksInput = "VirtualSticksInputCommand"
)

// Command is one validated operator command, ready to forward to a drone.
// The concrete value is serialized as-is into the fleet hub envelope.
type Command interface {
	Role() string
	Name() string
}

// FlightCommand is a simple named flight action.
type FlightCommand struct {
	Command string `json:"command"`
}

func (FlightCommand) Role() string   { return RoleFlight }
func (c FlightCommand) Name() string { return c.Command }

// UtilityCommand toggles an auxiliary drone feature on or off.
type UtilityCommand struct {
	Command string `json:"command"`
	State   bool   `json:"state"`
}

func (UtilityCommand) Role() string   { return RoleUtility }
func (c UtilityCommand) Name() string { return c.Command }

// StartAction is performed before a mission starts.
type StartAction string

const (
	StartTakeoff StartAction = "takeoff"
	StartNone    StartAction = "none"
)

// EndAction is performed when a mission completes.
type EndAction string

const (
	EndLand   EndAction = "land"
	EndGoHome EndAction = "goHome"
	EndNone   EndAction = "none"
)

// MissionStatus is the execution status of a mission.
type MissionStatus string

const (
	MissionRunning   MissionStatus = "RUNNING"
	MissionPaused    MissionStatus = "PAUSED"
	MissionCompleted MissionStatus = "COMPLETED"
	MissionStopped   MissionStatus = "STOPPED"
)

// StartMissionCommand starts a mission profile of waypoints and actions.
type StartMissionCommand struct {
	Command     string               `json:"command"`
	StartAction StartAction          `json:"startAction"`
	EndAction   EndAction            `json:"endAction"`
	Repeat      *int                 `json:"repeat,omitempty"`
	Altitude    float64              `json:"altitude"`
	Path        []telemetry.GeoPoint `json:"path"`
	Status      MissionStatus        `json:"status"`
}

func (StartMissionCommand) Role() string   { return RoleStartMission }
func (c StartMissionCommand) Name() string { return c.Command }

// VirtualSticksInputCommand carries manual stick input. Each axis ranges
// from -1.0 to 1.0.
type VirtualSticksInputCommand struct {
	Command  string  `json:"command"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	Roll     float64 `json:"roll"`
	Throttle float64 `json:"throttle"`
}

func (VirtualSticksInputCommand) Role() string   { return RoleVirtualSticksInput }
func (c VirtualSticksInputCommand) Name() string { return c.Command }

// Allow-lists of valid "command" discriminator values per variant.
var (
	flightAllowed = []string{
		"takeoff",
		"land",
		"startGoHome",
		"pauseMission",
		"stopMission",
		"startMission",
	}
	utilityAllowed = []string{
		"motors",
		"identify",
		"virtualSticks",
	}
	startMissionAllowed  = []string{"startMission"}
	virtualSticksAllowed = []string{"virtualSticksInput"}
)

// Parse decodes message into the command variant selected by role. It
// requires the embedded "command" discriminator to be present and in the
// variant's allow-list. Callers log and drop on error; no partial command
// is ever returned.
func Parse(role string, message json.RawMessage) (Command, error) {
	name, err := discriminator(message)
	if err != nil {
		return nil, err
	}

	switch role {
	case RoleFlight:
		return parseInto[FlightCommand](role, name, flightAllowed, message)
	case RoleUtility:
		return parseInto[UtilityCommand](role, name, utilityAllowed, message)
	case RoleStartMission:
		cmd, err := parseInto[StartMissionCommand](role, name, startMissionAllowed, message)
		if err != nil {
			return nil, err
		}
		mission := cmd.(StartMissionCommand)
		if err := mission.validate(); err != nil {
			return nil, err
		}
		return mission, nil
	case RoleVirtualSticksInput:
		return parseInto[VirtualSticksInputCommand](role, name, virtualSticksAllowed, message)
	default:
		return nil, fmt.Errorf("unknown command role %q", role)
	}
}

func parseInto[T Command](role, name string, allowed []string, message json.RawMessage) (Command, error) {
	if !slices.Contains(allowed, name) {
		return nil, fmt.Errorf("command %q not allowed for role %s", name, role)
	}
	var cmd T
	if err := json.Unmarshal(message, &cmd); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", role, err)
	}
	return cmd, nil
}

// discriminator extracts the "command" field from the payload.
func discriminator(message json.RawMessage) (string, error) {
	var probe struct {
		Command *string `json:"command"`
	}
	if err := json.Unmarshal(message, &probe); err != nil {
		return "", fmt.Errorf("malformed command payload: %w", err)
	}
	if probe.Command == nil || *probe.Command == "" {
		return "", fmt.Errorf("missing command property")
	}
	return *probe.Command, nil
}

// MissionState maps a command to the mission status it implies, if any.
// Operators that issued the command are notified of the transition.
func MissionState(c Command) (MissionStatus, bool) {
	switch cmd := c.(type) {
	case StartMissionCommand:
		if cmd.Status != "" {
			return cmd.Status, true
		}
		return MissionRunning, true
	case FlightCommand:
		switch cmd.Command {
		case "startMission":
			return MissionRunning, true
		case "pauseMission":
			return MissionPaused, true
		case "stopMission":
			return MissionStopped, true
		}
	}
	return "", false
}

func (c StartMissionCommand) validate() error {
	switch c.StartAction {
	case StartTakeoff, StartNone:
	default:
		return fmt.Errorf("invalid startAction %q", c.StartAction)
	}
	switch c.EndAction {
	case EndLand, EndGoHome, EndNone:
	default:
		return fmt.Errorf("invalid endAction %q", c.EndAction)
	}
	switch c.Status {
	case MissionRunning, MissionPaused, MissionCompleted, MissionStopped, "":
	default:
		return fmt.Errorf("invalid mission status %q", c.Status)
	}
	return nil
}
