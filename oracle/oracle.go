// oracle/oracle.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package oracle computes the shortest SAM-avoiding polyline between two
// free-space points: direct segment when unobstructed, a tangent-arc-tangent
// walk around a single blocking polygon, or Dijkstra over a visibility graph
// when more than one polygon is in play.
package oracle

import (
	gomath "math"

	m "github.com/isrplan/planner/math"
)

// Method tags describe which algorithm produced a Result. Callers must
// only test "valid iff Path non-empty and Length finite" — the string
// itself carries no contract.
const (
	MethodDirect          = "direct"
	MethodSinglePolygon   = "single-polygon"
	MethodVisibilityGraph = "visibility-graph"
	MethodInvalidStart    = "INVALID: start inside polygon"
	MethodInvalidGoal     = "INVALID: goal inside polygon"
	MethodInvalidNoPath   = "INVALID: no path around obstacles"
	MethodInvalidValidate = "INVALID: candidate path crosses polygon"
)

// Result is the oracle's answer for one (start, goal) pair.
type Result struct {
	Path   []m.Point2D
	Length float64
	Method string
}

func invalid(method string) Result {
	return Result{Method: method, Length: gomath.Inf(1)}
}

// FindPath returns the shortest polyline from start to goal that never
// enters the interior of any polygon in polygons. Each polygon is a
// CCW-ordered convex vertex list (as produced by the sam package).
func FindPath(start, goal m.Point2D, polygons [][]m.Point2D) Result {
	for i, poly := range polygons {
		if m.PointInPolygon(start, poly) {
			return invalid(MethodInvalidStart + tagIndex(i))
		}
	}
	for i, poly := range polygons {
		if m.PointInPolygon(goal, poly) {
			return invalid(MethodInvalidGoal + tagIndex(i))
		}
	}

	if segmentClearOfAllPolygons(start, goal, polygons) {
		return Result{Path: []m.Point2D{start, goal}, Length: m.Distance(start, goal), Method: MethodDirect}
	}

	var res Result
	if len(polygons) == 1 {
		path, length, method := navigateSinglePolygon(start, goal, polygons[0])
		res = Result{Path: path, Length: length, Method: method}
	} else {
		path, length, method := navigateMultiPolygon(start, goal, polygons)
		res = Result{Path: path, Length: length, Method: method}
	}

	if len(res.Path) == 0 {
		return invalid(MethodInvalidNoPath)
	}
	if !ValidatePath(res.Path, polygons) {
		return invalid(MethodInvalidValidate)
	}
	return res
}

func tagIndex(i int) string {
	digits := "0123456789"
	if i < 10 {
		return " " + string(digits[i])
	}
	return ""
}

///////////////////////////////////////////////////////////////////////////
// shared geometry helpers

func isPolygonVertex(p m.Point2D, poly []m.Point2D) bool {
	for _, v := range poly {
		if m.Distance(p, v) < m.EpsCoincide {
			return true
		}
	}
	return false
}

func pointsEqual(a, b m.Point2D) bool { return m.Distance(a, b) < m.EpsCoincide }

// segmentCrossesPolygon reports whether segment a-b enters poly's
// interior: either endpoint (when not itself a polygon vertex) lies
// inside, the segment intersects (touching included) an edge that does
// not contain one of its polygon-vertex endpoints, or an interior sample
// point lies inside.
func segmentCrossesPolygon(a, b m.Point2D, poly []m.Point2D) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	aIsVertex := isPolygonVertex(a, poly)
	bIsVertex := isPolygonVertex(b, poly)

	if !aIsVertex && m.PointInPolygon(a, poly) {
		return true
	}
	if !bIsVertex && m.PointInPolygon(b, poly) {
		return true
	}

	for i := 0; i < n; i++ {
		p1, p2 := poly[i], poly[(i+1)%n]
		if bIsVertex && (pointsEqual(b, p1) || pointsEqual(b, p2)) {
			continue
		}
		if aIsVertex && (pointsEqual(a, p1) || pointsEqual(a, p2)) {
			continue
		}
		if m.SegmentsIntersect(a, b, p1, p2) {
			return true
		}
	}

	const samples = 20
	for i := 1; i < samples; i++ {
		t := float64(i) / float64(samples)
		if m.PointInPolygon(m.Lerp2D(t, a, b), poly) {
			return true
		}
	}
	return false
}

func segmentClearOfAllPolygons(a, b m.Point2D, polygons [][]m.Point2D) bool {
	for _, poly := range polygons {
		if segmentCrossesPolygon(a, b, poly) {
			return false
		}
	}
	return true
}

func findBlockingPolygon(a, b m.Point2D, polygons [][]m.Point2D) int {
	for i, poly := range polygons {
		if segmentCrossesPolygon(a, b, poly) {
			return i
		}
	}
	return -1
}

func pathLength(path []m.Point2D) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += m.Distance(path[i], path[i+1])
	}
	return total
}

