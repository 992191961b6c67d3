// trajectory/trajectory_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajectory

import (
	"testing"

	"github.com/isrplan/planner/distmat"
	m "github.com/isrplan/planner/math"
)

func posLookup(pts map[string]m.Point2D) PosOf {
	return func(id string) (m.Point2D, bool) {
		p, ok := pts[id]
		return p, ok
	}
}

func TestMaterializeDirectRoute(t *testing.T) {
	pts := map[string]m.Point2D{
		"A1": {0, 0},
		"T1": {10, 0},
		"T2": {10, 10},
	}
	mt := distmat.Build(distmat.Input{Waypoints: []distmat.Waypoint{
		{ID: "A1", Pos: pts["A1"], IsAirport: true},
		{ID: "T1", Pos: pts["T1"], IsTarget: true},
		{ID: "T2", Pos: pts["T2"], IsTarget: true},
	}})

	traj := Materialize([]string{"A1", "T1", "T2", "A1"}, mt, posLookup(pts))
	if len(traj.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", traj.Errors)
	}
	want := []m.Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 0}}
	if len(traj.Points) != len(want) {
		t.Fatalf("got %d points, want %d: %v", len(traj.Points), len(want), traj.Points)
	}
	for i, p := range want {
		if m.Distance(p, traj.Points[i]) > 1e-9 {
			t.Errorf("point %d: got %v, want %v", i, traj.Points[i], p)
		}
	}
}

func TestMaterializeUnknownWaypoint(t *testing.T) {
	pts := map[string]m.Point2D{"A1": {0, 0}}
	mt := distmat.Build(distmat.Input{Waypoints: []distmat.Waypoint{
		{ID: "A1", Pos: pts["A1"], IsAirport: true},
	}})
	traj := Materialize([]string{"A1", "Tx"}, mt, posLookup(pts))
	if len(traj.Errors) == 0 {
		t.Fatal("expected an edge error for the unknown waypoint")
	}
}

func TestMaterializeEmptyRoute(t *testing.T) {
	traj := Materialize(nil, &distmat.Matrix{}, posLookup(nil))
	if len(traj.Points) != 0 || len(traj.Errors) != 0 {
		t.Fatalf("got %+v, want zero value", traj)
	}
}
