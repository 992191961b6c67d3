// orienteer/orienteer_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package orienteer

import "testing"

func TestSolveEmptyCandidateSet(t *testing.T) {
	in := Input{StartToEnd: 10, Budget: 20}
	r, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.VisitOrder) != 0 || r.Prize != 0 || r.Length != 10 {
		t.Fatalf("got %+v", r)
	}
}

func TestSolveBudgetInfeasibleEvenDirect(t *testing.T) {
	in := Input{StartToEnd: 100, Budget: 5}
	r, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.VisitOrder) != 0 || r.Prize != 0 || r.Length != 0 {
		t.Fatalf("got %+v, want empty zero result", r)
	}
}

func TestSolveSingleTargetWithinBudget(t *testing.T) {
	in := Input{
		StartToTarget:  []float64{10},
		TargetToEnd:    []float64{10},
		TargetToTarget: [][]float64{{0}},
		StartToEnd:     5,
		Targets:        []Target{{ID: "T1", Priority: 5}},
		Budget:         25,
	}
	r, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.Prize != 5 || len(r.VisitOrder) != 1 || r.VisitOrder[0] != 0 {
		t.Fatalf("got %+v", r)
	}
	if r.Length != 20 {
		t.Errorf("got length %v, want 20", r.Length)
	}
}

func TestSolvePrefersHigherPrizeOverShorterRoute(t *testing.T) {
	// Two mutually exclusive single-target options (budget only fits one
	// leg); the higher-priority target should win even if farther.
	in := Input{
		StartToTarget:  []float64{10, 10},
		TargetToEnd:    []float64{10, 50},
		TargetToTarget: [][]float64{{0, 1000}, {1000, 0}},
		StartToEnd:     1,
		Targets:        []Target{{ID: "near", Priority: 1}, {ID: "far", Priority: 10}},
		Budget:         60,
	}
	r, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.Prize != 10 || len(r.VisitOrder) != 1 || r.VisitOrder[0] != 1 {
		t.Fatalf("got %+v, want the higher-priority far target", r)
	}
}

func TestSolveVisitsBothWhenBudgetAllows(t *testing.T) {
	in := Input{
		StartToTarget:  []float64{10, 10},
		TargetToEnd:    []float64{10, 10},
		TargetToTarget: [][]float64{{0, 5}, {5, 0}},
		StartToEnd:     1,
		Targets:        []Target{{ID: "a", Priority: 3}, {ID: "b", Priority: 4}},
		Budget:         30,
	}
	r, err := Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.Prize != 7 || len(r.VisitOrder) != 2 {
		t.Fatalf("got %+v, want both targets visited", r)
	}
}

func TestSolveTooManyTargets(t *testing.T) {
	targets := make([]Target, MaxTargets+1)
	for i := range targets {
		targets[i] = Target{ID: "x", Priority: 1}
	}
	_, err := Solve(Input{Targets: targets})
	if err == nil {
		t.Fatal("expected ErrTooManyTargets")
	}
}
