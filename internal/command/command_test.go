package command

import (
	"encoding/json"
	"testing"
)

func TestParseFlightCommand(t *testing.T) {
	cmd, err := Parse(RoleFlight, json.RawMessage(`{"command":"takeoff"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	fc, ok := cmd.(FlightCommand)
	if !ok {
		t.Fatalf("expected FlightCommand, got %T", cmd)
	}
	if fc.Name() != "takeoff" {
		t.Fatalf("unexpected name %q", fc.Name())
	}
}

func TestParseUtilityCommand(t *testing.T) {
	cmd, err := Parse(RoleUtility, json.RawMessage(`{"command":"motors","state":true}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	uc := cmd.(UtilityCommand)
	if !uc.State {
		t.Fatalf("state not decoded")
	}
}

func TestParseRejectsNameOutsideAllowList(t *testing.T) {
	// takeoff is a flight command; the utility variant must not accept it.
	if _, err := Parse(RoleUtility, json.RawMessage(`{"command":"takeoff","state":true}`)); err == nil {
		t.Fatalf("expected allow-list rejection")
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	if _, err := Parse("TelemetryCommand", json.RawMessage(`{"command":"takeoff"}`)); err == nil {
		t.Fatalf("expected unknown role error")
	}
}

func TestParseRejectsMissingDiscriminator(t *testing.T) {
	if _, err := Parse(RoleFlight, json.RawMessage(`{"state":true}`)); err == nil {
		t.Fatalf("expected missing command error")
	}
	if _, err := Parse(RoleFlight, json.RawMessage(`{"command":""}`)); err == nil {
		t.Fatalf("expected empty command error")
	}
}

func TestParseStartMissionCommand(t *testing.T) {
	payload := `{
		"command":"startMission",
		"startAction":"takeoff",
		"endAction":"goHome",
		"repeat":2,
		"altitude":35.5,
		"path":[{"lat":48.2,"lng":16.3},{"lat":48.3,"lng":16.4}],
		"status":"RUNNING"
	}`
	cmd, err := Parse(RoleStartMission, json.RawMessage(payload))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	mc := cmd.(StartMissionCommand)
	if mc.StartAction != StartTakeoff || mc.EndAction != EndGoHome {
		t.Fatalf("actions not decoded: %+v", mc)
	}
	if mc.Repeat == nil || *mc.Repeat != 2 {
		t.Fatalf("repeat not decoded")
	}
	if len(mc.Path) != 2 || mc.Path[1].Lng != 16.4 {
		t.Fatalf("path not decoded: %+v", mc.Path)
	}
}

func TestParseStartMissionRejectsBadEnums(t *testing.T) {
	cases := map[string]string{
		"startAction": `{"command":"startMission","startAction":"launch","endAction":"land"}`,
		"endAction":   `{"command":"startMission","startAction":"none","endAction":"crash"}`,
		"status":      `{"command":"startMission","startAction":"none","endAction":"none","status":"FLYING"}`,
	}
	for field, payload := range cases {
		if _, err := Parse(RoleStartMission, json.RawMessage(payload)); err == nil {
			t.Fatalf("expected invalid %s to be rejected", field)
		}
	}
}

func TestParseVirtualSticksInput(t *testing.T) {
	payload := `{"command":"virtualSticksInput","yaw":-0.5,"pitch":0.1,"roll":0,"throttle":1}`
	cmd, err := Parse(RoleVirtualSticksInput, json.RawMessage(payload))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	vc := cmd.(VirtualSticksInputCommand)
	if vc.Yaw != -0.5 || vc.Throttle != 1 {
		t.Fatalf("axes not decoded: %+v", vc)
	}
}

func TestMissionState(t *testing.T) {
	if st, ok := MissionState(FlightCommand{Command: "pauseMission"}); !ok || st != MissionPaused {
		t.Fatalf("pauseMission: got %q, %v", st, ok)
	}
	if st, ok := MissionState(FlightCommand{Command: "stopMission"}); !ok || st != MissionStopped {
		t.Fatalf("stopMission: got %q, %v", st, ok)
	}
	if _, ok := MissionState(FlightCommand{Command: "land"}); ok {
		t.Fatalf("land must not imply a mission state")
	}
	if st, ok := MissionState(StartMissionCommand{Command: "startMission"}); !ok || st != MissionRunning {
		t.Fatalf("startMission default: got %q, %v", st, ok)
	}
	if st, ok := MissionState(StartMissionCommand{Command: "startMission", Status: MissionPaused}); !ok || st != MissionPaused {
		t.Fatalf("explicit status: got %q, %v", st, ok)
	}
	if _, ok := MissionState(UtilityCommand{Command: "motors"}); ok {
		t.Fatalf("utility commands must not imply a mission state")
	}
}
