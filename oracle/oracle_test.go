// oracle/oracle_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package oracle

import (
	"testing"

	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/sam"
)

func wrapOne(center m.Point2D, radius float64) []m.Point2D {
	polys := sam.Wrap([]sam.Disk{{Center: center, Radius: radius}}, 2.0)
	if len(polys) != 1 {
		panic("expected exactly one wrapped polygon")
	}
	return polys[0].Vertices
}

func TestFindPathDirectNoObstacles(t *testing.T) {
	start, goal := m.Point2D{10, 10}, m.Point2D{50, 50}
	res := FindPath(start, goal, nil)
	if res.Method != MethodDirect {
		t.Fatalf("got method %q, want direct", res.Method)
	}
	want := m.Distance(start, goal)
	if m.Abs(res.Length-want) > 1e-6 {
		t.Errorf("got length %v, want %v", res.Length, want)
	}
}

func TestFindPathSingleSAMDetour(t *testing.T) {
	start, goal := m.Point2D{10, 10}, m.Point2D{50, 50}
	poly := wrapOne(m.Point2D{30, 30}, 12)

	direct := m.Distance(start, goal)
	res := FindPath(start, goal, [][]m.Point2D{poly})
	if res.Method == MethodDirect {
		t.Fatalf("expected a detour, got direct path")
	}
	if len(res.Path) == 0 || res.Length == 0 {
		t.Fatalf("got invalid result: %+v", res)
	}
	if res.Length <= direct {
		t.Errorf("detour length %v should exceed direct length %v", res.Length, direct)
	}
	if !ValidatePath(res.Path, [][]m.Point2D{poly}) {
		t.Errorf("returned path is not valid: %v", res.Path)
	}
}

func TestFindPathStartInsidePolygonIsInvalid(t *testing.T) {
	poly := wrapOne(m.Point2D{50, 50}, 10)
	res := FindPath(m.Point2D{50, 50}, m.Point2D{100, 100}, [][]m.Point2D{poly})
	if len(res.Path) != 0 {
		t.Errorf("expected empty path for start-inside-polygon, got %v", res.Path)
	}
	if !isInf(res.Length) {
		t.Errorf("expected +Inf length, got %v", res.Length)
	}
}

func TestFindPathMultiPolygonDijkstra(t *testing.T) {
	start, goal := m.Point2D{0, 0}, m.Point2D{100, 0}
	p1 := wrapOne(m.Point2D{30, 0}, 10)
	p2 := wrapOne(m.Point2D{70, 0}, 10)

	res := FindPath(start, goal, [][]m.Point2D{p1, p2})
	if res.Method != MethodVisibilityGraph {
		t.Fatalf("got method %q, want visibility-graph", res.Method)
	}
	if !ValidatePath(res.Path, [][]m.Point2D{p1, p2}) {
		t.Errorf("returned path crosses an obstacle: %v", res.Path)
	}
}

func TestFindPathSymmetric(t *testing.T) {
	a, b := m.Point2D{5, 5}, m.Point2D{60, 60}
	poly := wrapOne(m.Point2D{30, 30}, 12)
	r1 := FindPath(a, b, [][]m.Point2D{poly})
	r2 := FindPath(b, a, [][]m.Point2D{poly})
	if m.Abs(r1.Length-r2.Length) > 1e-6 {
		t.Errorf("asymmetric oracle: %v vs %v", r1.Length, r2.Length)
	}
}

func isInf(f float64) bool { return f > 1e300 }
