package main

import (
	"fmt"
	"strconv"
	"strings"

	"droneops-gateway/internal/command"
)

// parseInput turns an input line into a drone id and a command.
//
//	drone-01 takeoff
//	drone-01 motors on
//	drone-01 sticks 0.0 0.5 0.0 0.2
func parseInput(line string) (string, command.Command, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", nil, fmt.Errorf("expected <drone> <command>")
	}
	droneID, name, args := fields[0], fields[1], fields[2:]

	switch name {
	case "takeoff", "land", "startGoHome", "pauseMission", "stopMission", "startMission":
		return droneID, command.FlightCommand{Command: name}, nil

	case "motors", "identify", "virtualSticks":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return "", nil, fmt.Errorf("%s needs on|off", name)
		}
		return droneID, command.UtilityCommand{Command: name, State: args[0] == "on"}, nil

	case "sticks":
		if len(args) != 4 {
			return "", nil, fmt.Errorf("sticks needs <yaw> <pitch> <roll> <throttle>")
		}
		axes := make([]float64, 4)
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil || v < -1 || v > 1 {
				return "", nil, fmt.Errorf("axis %q must be in [-1, 1]", a)
			}
			axes[i] = v
		}
		return droneID, command.VirtualSticksInputCommand{
			Command:  "virtualSticksInput",
			Yaw:      axes[0],
			Pitch:    axes[1],
			Roll:     axes[2],
			Throttle: axes[3],
		}, nil
	}
	return "", nil, fmt.Errorf("unknown command %q", name)
}
