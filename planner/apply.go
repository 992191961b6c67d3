// planner/apply.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"fmt"

	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/trajectory"
)

// ApplySequenceResult is apply_sequence's result: either a feasible
// route/trajectory, or a structured error (never a panic or exception
// across this boundary, per the error-handling design).
type ApplySequenceResult struct {
	OK         bool
	Route      Route
	Length     float64
	Prize      int
	Trajectory Trajectory
	Error      string
}

// ApplySequence validates a user-supplied waypoint sequence against env
// and fuelBudget: every id must be known, the SAM-aware length must not
// exceed budget, and the materialized trajectory must be valid.
func (f *Facade) ApplySequence(droneID string, sequence []string, env *Environment, fuelBudget float64) ApplySequenceResult {
	if env == nil {
		return ApplySequenceResult{Error: "nil environment"}
	}

	matrixInput := buildMatrixInput(env, nil, 0)
	mt := f.buildMatrixFromInput(matrixInput)
	posOf := posLookupFromInput(matrixInput)

	for _, id := range sequence {
		if mt.IndexOf(id) < 0 {
			return ApplySequenceResult{Error: fmt.Sprintf("unknown waypoint %q", id)}
		}
	}

	var length float64
	for i := 0; i+1 < len(sequence); i++ {
		d := mt.DistanceBetween(sequence[i], sequence[i+1])
		if !m.IsFinite(d) {
			return ApplySequenceResult{Error: fmt.Sprintf("no feasible path from %q to %q", sequence[i], sequence[i+1])}
		}
		length += d
	}
	if length > fuelBudget+m.EpsBudget {
		return ApplySequenceResult{Error: fmt.Sprintf("route length %.4f exceeds fuel budget %.4f", length, fuelBudget)}
	}

	targetsByID := make(map[string]Target, len(env.Targets))
	for _, t := range env.Targets {
		targetsByID[t.ID] = t
	}
	var prize int
	var visited []string
	for _, id := range sequence {
		if t, ok := targetsByID[id]; ok {
			prize += t.Priority
			visited = append(visited, id)
		}
	}

	traj := trajectory.Materialize(sequence, mt, posOf)
	if len(traj.Errors) > 0 {
		return ApplySequenceResult{Error: fmt.Sprintf("trajectory invalid at %s->%s: %s",
			traj.Errors[0].From, traj.Errors[0].To, traj.Errors[0].Message)}
	}

	route := Route{DroneID: droneID, Waypoints: append([]string{}, sequence...), Length: length, Prize: prize, Visited: visited}
	return ApplySequenceResult{
		OK:         true,
		Route:      route,
		Length:     length,
		Prize:      prize,
		Trajectory: Trajectory{Points: traj.Points},
	}
}
