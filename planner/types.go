// planner/types.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package planner is the facade: it owns the Environment and Solution
// data model and the solve/prepare_matrix/clear_matrix/apply_sequence/
// coverage_stats operations, orchestrating the geometry, oracle,
// distance-matrix, allocator, orienteering, trajectory, and
// post-optimizer packages into one end-to-end pipeline.
package planner

import (
	"fmt"

	m "github.com/isrplan/planner/math"
)

// TargetType is one of the five target categories. An empty
// accessible_types set on a DroneConfig means "all types".
type TargetType string

const (
	TypeA TargetType = "a"
	TypeB TargetType = "b"
	TypeC TargetType = "c"
	TypeD TargetType = "d"
	TypeE TargetType = "e"
)

func ValidTargetType(t TargetType) bool {
	switch t {
	case TypeA, TypeB, TypeC, TypeD, TypeE:
		return true
	}
	return false
}

// Airport is a candidate start/end anchor.
type Airport struct {
	ID string
	X, Y float64
}

func (a Airport) Pos() m.Point2D { return m.Point2D{a.X, a.Y} }

// Target is a prioritized point of interest.
type Target struct {
	ID       string
	X, Y     float64
	Priority int
	Type     TargetType
}

func (t Target) Pos() m.Point2D { return m.Point2D{t.X, t.Y} }

// SAM is a circular exclusion zone.
type SAM struct {
	X, Y   float64
	Radius float64
}

func (s SAM) Pos() m.Point2D { return m.Point2D{s.X, s.Y} }

// Environment is the immutable input to a plan: every airport, target,
// and SAM, plus any synthetic start positions used for mid-mission
// replan contracts.
type Environment struct {
	Airports        []Airport
	Targets         []Target
	SAMs            []SAM
	SyntheticStarts map[string]m.Point2D
	Checkpoints     []Airport
}

// DroneConfig derives a drone's planning contract from user input plus
// the active policy: a start_id ending in "_START" or naming a
// checkpoint draws its coordinates from SyntheticStarts; end_id "ANY"
// or "-" frees the orienteering solver to choose any real airport.
type DroneConfig struct {
	ID              string
	Enabled         bool
	FuelBudget      float64
	StartID         string
	EndID           string
	AccessibleTypes map[TargetType]bool
	SyntheticStart  *m.Point2D
}

// AccessType reports whether t is reachable by this drone: an empty
// AccessibleTypes set means all types are accessible.
func (d DroneConfig) AccessType(t TargetType) bool {
	if len(d.AccessibleTypes) == 0 {
		return true
	}
	return d.AccessibleTypes[t]
}

// EndIsFree reports whether the drone contract lets the solver pick any
// real airport as the end anchor.
func (d DroneConfig) EndIsFree() bool {
	return d.EndID == "ANY" || d.EndID == "-" || d.EndID == ""
}

// Route is one drone's ordered waypoint sequence, start anchor to end
// anchor inclusive.
type Route struct {
	DroneID    string
	Waypoints  []string // waypoint ids, start..end inclusive
	Length     float64
	Prize      int
	Visited    []string // target ids visited, in route order
}

// Trajectory is the materialized polyline realizing a Route.
type Trajectory struct {
	Points      []m.Point2D
	EdgeErrors  []EdgeError // oracle-inconsistency flags, if any
}

// EdgeError flags a trajectory edge where the oracle disagreed with the
// cached distance matrix during materialization.
type EdgeError struct {
	From, To string
	Message  string
}

// Solution is the output of a complete solve() call.
type Solution struct {
	RoutesByDrone       map[string]Route
	AllocationsByDrone  map[string][]string // drone id -> target ids assigned (pre-DP)
	TrajectoriesByDrone map[string]Trajectory
	TotalPrize          int
	TotalFuel           float64
	WrappedPolygons     [][]m.Point2D
	ExcludedTargets     []string
}

// Error kinds per the facade's error-handling contract. Solve and
// PrepareMatrix return ErrInputMalformed for a nil environment, and Solve
// returns ErrInfeasibleContract when a drone names an unknown start or
// end waypoint or has a free end with no real airports. ErrAllocatorFailure
// is not returned by any current code path. Every other condition is
// represented in the Solution's structured fields.
type ErrInputMalformed struct{ Reason string }

func (e *ErrInputMalformed) Error() string { return fmt.Sprintf("input malformed: %s", e.Reason) }

type ErrInfeasibleContract struct{ DroneID, Reason string }

func (e *ErrInfeasibleContract) Error() string {
	return fmt.Sprintf("drone %s: infeasible contract: %s", e.DroneID, e.Reason)
}

type ErrAllocatorFailure struct{ Reason string }

func (e *ErrAllocatorFailure) Error() string { return fmt.Sprintf("allocator failure: %s", e.Reason) }
