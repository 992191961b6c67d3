// trajectory/trajectory.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package trajectory stitches a drone's symbolic route into the actual
// polyline it will fly, by concatenating the distance matrix's cached
// per-edge obstacle-avoiding path (or querying the oracle directly when
// no cached path is stored) for every adjacent waypoint pair.
package trajectory

import (
	"fmt"

	"github.com/isrplan/planner/distmat"
	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/oracle"
)

// PosOf resolves a waypoint id to its map coordinates.
type PosOf func(id string) (m.Point2D, bool)

// EdgeError flags one route edge where materialization could not
// produce a valid polyline: an unknown waypoint, or the oracle
// disagreeing with what the cached matrix claimed was a finite-length
// edge (the oracle-inconsistency case in the error-handling design).
type EdgeError struct {
	From, To string
	Message  string
}

// Trajectory is the materialized polyline realizing a route. When
// Errors is non-empty the trajectory is truncated at the first failing
// edge rather than silently substituting a straight segment across an
// obstacle.
type Trajectory struct {
	Points []m.Point2D
	Errors []EdgeError
}

// Materialize expands route (a sequence of waypoint ids, start anchor
// to end anchor inclusive) into its trajectory using mt's cached
// per-edge paths where present, falling back to a direct oracle query
// for edges the matrix recorded as direct (no stored polyline). Every
// route waypoint's coordinate appears as a vertex, in order; at each
// join the duplicated shared endpoint is dropped.
func Materialize(route []string, mt *distmat.Matrix, posOf PosOf) Trajectory {
	var traj Trajectory
	if len(route) == 0 {
		return traj
	}

	startPos, ok := posOf(route[0])
	if !ok {
		traj.Errors = append(traj.Errors, EdgeError{From: route[0], Message: fmt.Sprintf("unknown waypoint %q", route[0])})
		return traj
	}
	traj.Points = append(traj.Points, startPos)

	for i := 0; i+1 < len(route); i++ {
		from, to := route[i], route[i+1]
		fromPos, okA := posOf(from)
		toPos, okB := posOf(to)
		if !okA || !okB {
			traj.Errors = append(traj.Errors, EdgeError{from, to, "unknown waypoint"})
			break
		}

		if path := mt.PathBetween(from, to); len(path) > 0 {
			if !oracle.ValidatePath(path, mt.Polygons) {
				traj.Errors = append(traj.Errors, EdgeError{from, to, "oracle disagrees with cached matrix path"})
				break
			}
			traj.Points = append(traj.Points, path[1:]...)
			continue
		}

		d := mt.DistanceBetween(from, to)
		if !m.IsFinite(d) {
			traj.Errors = append(traj.Errors, EdgeError{from, to, "matrix reports no finite-length edge"})
			break
		}

		// Matrix said this edge was direct (no stored polyline); re-derive
		// it from the oracle rather than assuming the straight segment,
		// since a disagreement here is exactly the oracle-inconsistency
		// condition the edge error exists to catch.
		res := oracle.FindPath(fromPos, toPos, mt.Polygons)
		if len(res.Path) == 0 {
			traj.Errors = append(traj.Errors, EdgeError{from, to, "oracle disagrees with cached matrix distance"})
			break
		}
		traj.Points = append(traj.Points, res.Path[1:]...)
	}

	return traj
}

// Length returns the total length of traj's polyline.
func Length(traj Trajectory) float64 {
	var total float64
	for i := 0; i+1 < len(traj.Points); i++ {
		total += m.Distance(traj.Points[i], traj.Points[i+1])
	}
	return total
}
