// planner/facade_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"testing"

	"github.com/isrplan/planner/allocate"
	"github.com/isrplan/planner/log"
	m "github.com/isrplan/planner/math"
)

func newTestFacade() *Facade { return NewFacade(log.Discard()) }

// S1 — direct path, no SAMs.
func TestSolveDirectPathNoSAMs(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 10, Y: 10}},
		Targets:  []Target{{ID: "T1", X: 50, Y: 50, Priority: 5, Type: TypeA}},
	}
	drones := []DroneConfig{{ID: "d1", Enabled: true, FuelBudget: 200, StartID: "A1", EndID: "A1"}}

	sol, err := newTestFacade().Solve(env, drones, allocate.Greedy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	r := sol.RoutesByDrone["d1"]
	if r.Prize != 5 {
		t.Errorf("got prize %d, want 5", r.Prize)
	}
	wantLen := m.Distance(m.Point2D{10, 10}, m.Point2D{50, 50}) * 2
	if m.Abs(r.Length-wantLen) > 1e-6 {
		t.Errorf("got length %v, want %v", r.Length, wantLen)
	}
	if len(sol.ExcludedTargets) != 0 {
		t.Errorf("unexpected exclusions: %v", sol.ExcludedTargets)
	}
}

// S2 — a SAM between airport and target forces a detour; the trajectory
// must avoid the wrapped polygon and the route must still fit the budget.
func TestSolveSingleSAMDetour(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 10, Y: 10}},
		Targets:  []Target{{ID: "T1", X: 50, Y: 50, Priority: 5, Type: TypeA}},
		SAMs:     []SAM{{X: 30, Y: 30, Radius: 12}},
	}
	drones := []DroneConfig{{ID: "d1", Enabled: true, FuelBudget: 200, StartID: "A1", EndID: "A1"}}

	sol, err := newTestFacade().Solve(env, drones, allocate.Greedy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	r := sol.RoutesByDrone["d1"]
	if r.Prize != 5 {
		t.Fatalf("got prize %d, want 5", r.Prize)
	}
	direct := m.Distance(m.Point2D{10, 10}, m.Point2D{50, 50}) * 2
	if r.Length <= direct {
		t.Errorf("detour length %v should exceed direct round trip %v", r.Length, direct)
	}
	if r.Length > drones[0].FuelBudget+m.EpsBudget {
		t.Errorf("route length %v exceeds budget %v", r.Length, drones[0].FuelBudget)
	}

	traj := sol.TrajectoriesByDrone["d1"]
	if len(traj.EdgeErrors) != 0 {
		t.Fatalf("unexpected trajectory errors: %v", traj.EdgeErrors)
	}
	// Exclusion safety: no trajectory segment may have an interior sample
	// strictly inside any wrapped polygon.
	for i := 0; i+1 < len(traj.Points); i++ {
		for _, poly := range sol.WrappedPolygons {
			for s := 1; s < 21; s++ {
				p := m.Lerp2D(float64(s)/21, traj.Points[i], traj.Points[i+1])
				if m.PointInPolygon(p, poly) {
					t.Fatalf("trajectory segment %d enters a wrapped polygon at %v", i, p)
				}
			}
		}
	}

	// Trajectory-route consistency: every route waypoint coordinate
	// appears as a trajectory vertex, in route order.
	pos := map[string]m.Point2D{"A1": {10, 10}, "T1": {50, 50}}
	vi := 0
	for _, id := range r.Waypoints {
		want := pos[id]
		found := false
		for ; vi < len(traj.Points); vi++ {
			if m.Distance(traj.Points[vi], want) < m.EpsCoincide {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("waypoint %s (%v) missing from trajectory %v", id, want, traj.Points)
		}
	}
}

// S5 — replan from a mid-mission checkpoint: the synthetic start is a
// matrix label, and the leg blocked by the SAM detours around it.
func TestSolveCheckpointReplan(t *testing.T) {
	env := &Environment{
		Airports:        []Airport{{ID: "A1", X: 50, Y: 50}},
		Targets:         []Target{{ID: "T1", X: 30, Y: 30, Priority: 5, Type: TypeA}},
		SAMs:            []SAM{{X: 40, Y: 40, Radius: 10}},
		SyntheticStarts: map[string]m.Point2D{"C1-1": {20, 20}},
	}

	f := newTestFacade()
	summary, err := f.PrepareMatrix(env, 0)
	if err != nil {
		t.Fatal(err)
	}
	if summary.LabelCount != 3 {
		t.Fatalf("got %d matrix labels, want 3 (A1, T1, C1-1)", summary.LabelCount)
	}

	drones := []DroneConfig{{ID: "d1", Enabled: true, FuelBudget: 200, StartID: "C1-1", EndID: "A1"}}
	sol, err := f.Solve(env, drones, allocate.Greedy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	r := sol.RoutesByDrone["d1"]
	if r.Prize != 5 {
		t.Fatalf("got prize %d, want 5: route %v", r.Prize, r.Waypoints)
	}
	if r.Waypoints[0] != "C1-1" || r.Waypoints[len(r.Waypoints)-1] != "A1" {
		t.Fatalf("got route %v, want C1-1 ... A1", r.Waypoints)
	}

	// The T1->A1 leg is blocked by the SAM, so the total must exceed the
	// purely Euclidean route length.
	euclid := m.Distance(m.Point2D{20, 20}, m.Point2D{30, 30}) + m.Distance(m.Point2D{30, 30}, m.Point2D{50, 50})
	if r.Length <= euclid {
		t.Errorf("got length %v, want > Euclidean %v (SAM detour)", r.Length, euclid)
	}

	traj := sol.TrajectoriesByDrone["d1"]
	if len(traj.EdgeErrors) != 0 {
		t.Fatalf("unexpected trajectory errors: %v", traj.EdgeErrors)
	}
	for i := 0; i+1 < len(traj.Points); i++ {
		for _, poly := range sol.WrappedPolygons {
			for s := 1; s < 21; s++ {
				p := m.Lerp2D(float64(s)/21, traj.Points[i], traj.Points[i+1])
				if m.PointInPolygon(p, poly) {
					t.Fatalf("trajectory enters the SAM polygon at %v", p)
				}
			}
		}
	}
}

// S3 — target inside a SAM is excluded; the drone gets a trivial route.
func TestSolveTargetInsideSAMExcluded(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 0, Y: 0}},
		Targets:  []Target{{ID: "T1", X: 50, Y: 50, Priority: 5, Type: TypeA}},
		SAMs:     []SAM{{X: 50, Y: 50, Radius: 10}},
	}
	drones := []DroneConfig{{ID: "d1", Enabled: true, FuelBudget: 200, StartID: "A1", EndID: "A1"}}

	sol, err := newTestFacade().Solve(env, drones, allocate.Greedy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.ExcludedTargets) != 1 || sol.ExcludedTargets[0] != "T1" {
		t.Fatalf("got exclusions %v, want [T1]", sol.ExcludedTargets)
	}
	r := sol.RoutesByDrone["d1"]
	if r.Prize != 0 {
		t.Errorf("got prize %d, want 0", r.Prize)
	}
	if len(r.Waypoints) != 2 || r.Waypoints[0] != "A1" || r.Waypoints[1] != "A1" {
		t.Errorf("got waypoints %v, want [A1 A1]", r.Waypoints)
	}
}

// S4 — two drones, balanced allocation by distance tie-break.
func TestSolveTwoDronesBalanced(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 0, Y: 0}, {ID: "A2", X: 100, Y: 0}},
		Targets: []Target{
			{ID: "T1", X: 20, Y: 40, Priority: 5, Type: TypeA},
			{ID: "T2", X: 80, Y: 40, Priority: 5, Type: TypeA},
			{ID: "T3", X: 20, Y: 60, Priority: 5, Type: TypeA},
			{ID: "T4", X: 80, Y: 60, Priority: 5, Type: TypeA},
		},
	}
	drones := []DroneConfig{
		{ID: "d1", Enabled: true, FuelBudget: 200, StartID: "A1", EndID: "A1"},
		{ID: "d2", Enabled: true, FuelBudget: 200, StartID: "A2", EndID: "A2"},
	}

	sol, err := newTestFacade().Solve(env, drones, allocate.Balanced, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.AllocationsByDrone["d1"]) != 2 || len(sol.AllocationsByDrone["d2"]) != 2 {
		t.Fatalf("got d1=%v d2=%v, want 2 each", sol.AllocationsByDrone["d1"], sol.AllocationsByDrone["d2"])
	}
	// Distance tie-break sends the western pair to the drone at A1.
	d1set := map[string]bool{}
	for _, id := range sol.AllocationsByDrone["d1"] {
		d1set[id] = true
	}
	if !d1set["T1"] || !d1set["T3"] {
		t.Errorf("got d1=%v, want the T1/T3 pair", sol.AllocationsByDrone["d1"])
	}
	for _, id := range []string{"d1", "d2"} {
		r := sol.RoutesByDrone[id]
		if r.Length > 200+m.EpsBudget {
			t.Errorf("%s route length %v exceeds budget", id, r.Length)
		}
	}
	// No target may appear in more than one drone's route.
	seen := map[string]string{}
	for id, r := range sol.RoutesByDrone {
		for _, tid := range r.Visited {
			if other, ok := seen[tid]; ok {
				t.Errorf("target %s visited by both %s and %s", tid, other, id)
			}
			seen[tid] = id
		}
	}
}

func TestSolveDeterministic(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 0, Y: 0}},
		Targets: []Target{
			{ID: "T1", X: 10, Y: 10, Priority: 3, Type: TypeA},
			{ID: "T2", X: 20, Y: 5, Priority: 4, Type: TypeA},
		},
	}
	drones := []DroneConfig{{ID: "d1", Enabled: true, FuelBudget: 100, StartID: "A1", EndID: "A1"}}

	f := newTestFacade()
	s1, err := f.Solve(env, drones, allocate.Efficient, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	s2, err := f.Solve(env, drones, allocate.Efficient, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	r1, r2 := s1.RoutesByDrone["d1"], s2.RoutesByDrone["d1"]
	if r1.Prize != r2.Prize || r1.Length != r2.Length || len(r1.Waypoints) != len(r2.Waypoints) {
		t.Errorf("non-deterministic solve: %+v vs %+v", r1, r2)
	}
}

func TestSolveDisabledDroneGetsNoRoute(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 0, Y: 0}},
		Targets:  []Target{{ID: "T1", X: 10, Y: 10, Priority: 1, Type: TypeA}},
	}
	drones := []DroneConfig{{ID: "d1", Enabled: false, FuelBudget: 100, StartID: "A1", EndID: "A1"}}

	sol, err := newTestFacade().Solve(env, drones, allocate.Greedy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.RoutesByDrone) != 0 {
		t.Errorf("got %d routes, want 0 for a disabled fleet", len(sol.RoutesByDrone))
	}
}

func TestApplySequenceRejectsUnknownWaypoint(t *testing.T) {
	env := &Environment{Airports: []Airport{{ID: "A1", X: 0, Y: 0}}}
	res := newTestFacade().ApplySequence("d1", []string{"A1", "Tx"}, env, 100)
	if res.OK || res.Error == "" {
		t.Fatalf("expected a rejection, got %+v", res)
	}
}

func TestApplySequenceRejectsOverBudget(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 0, Y: 0}},
		Targets:  []Target{{ID: "T1", X: 1000, Y: 0, Priority: 1, Type: TypeA}},
	}
	res := newTestFacade().ApplySequence("d1", []string{"A1", "T1", "A1"}, env, 10)
	if res.OK {
		t.Fatal("expected over-budget rejection")
	}
}

func TestApplySequenceAccepts(t *testing.T) {
	env := &Environment{
		Airports: []Airport{{ID: "A1", X: 0, Y: 0}},
		Targets:  []Target{{ID: "T1", X: 10, Y: 0, Priority: 5, Type: TypeA}},
	}
	res := newTestFacade().ApplySequence("d1", []string{"A1", "T1", "A1"}, env, 100)
	if !res.OK {
		t.Fatalf("expected acceptance, got error %q", res.Error)
	}
	if res.Prize != 5 {
		t.Errorf("got prize %d, want 5", res.Prize)
	}
}

func TestCoverageStats(t *testing.T) {
	env := &Environment{
		Targets: []Target{
			{ID: "T1", Priority: 5},
			{ID: "T2", Priority: 3},
		},
	}
	sol := &Solution{
		RoutesByDrone: map[string]Route{"d1": {Visited: []string{"T1"}}},
		TotalPrize:    5,
		TotalFuel:     42,
	}
	stats := CoverageStats(sol, env)
	if stats.Visited != 1 || stats.TotalTargets != 2 || stats.PrizePossible != 8 || stats.PrizeCollected != 5 {
		t.Fatalf("got %+v", stats)
	}
	if len(stats.Unvisited) != 1 || stats.Unvisited[0] != "T2" {
		t.Errorf("got unvisited %v, want [T2]", stats.Unvisited)
	}
}

func TestClearMatrixForcesRebuild(t *testing.T) {
	env := &Environment{Airports: []Airport{{ID: "A1", X: 0, Y: 0}}}
	f := newTestFacade()
	s1, err := f.PrepareMatrix(env, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.ClearMatrix()
	s2, err := f.PrepareMatrix(env, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s1.LabelCount != s2.LabelCount {
		t.Errorf("got %d vs %d labels", s1.LabelCount, s2.LabelCount)
	}
}
