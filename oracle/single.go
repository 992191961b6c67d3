// oracle/single.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package oracle

import (
	gomath "math"

	m "github.com/isrplan/planner/math"
)

// lineOfSightClear reports whether the segment from point to
// poly[targetIdx] is unobstructed by any other edge of poly.
func lineOfSightClear(point m.Point2D, poly []m.Point2D, targetIdx int) bool {
	n := len(poly)
	target := poly[targetIdx]
	for i := 0; i < n; i++ {
		if i == targetIdx || (i+1)%n == targetIdx {
			continue
		}
		p1, p2 := poly[i], poly[(i+1)%n]
		if m.SegmentsIntersect(point, target, p1, p2) {
			return false
		}
	}
	if m.PointInPolygon(m.Mid(point, target), poly) {
		return false
	}
	return true
}

// findTangentVertices returns the left and right silhouette vertex
// indices of poly as seen from point: the vertex pair where the boundary
// transitions between facing the point and facing away.
func findTangentVertices(point m.Point2D, poly []m.Point2D) (left, right int) {
	n := len(poly)
	if n < 3 {
		return 0, 0
	}

	left, right = -1, -1
	var leftBest, rightBest float64

	for i := 0; i < n; i++ {
		prev := poly[(i-1+n)%n]
		curr := poly[i]
		next := poly[(i+1)%n]

		crossPrev := m.Cross(m.Sub(curr, prev), m.Sub(point, prev))
		crossNext := m.Cross(m.Sub(next, curr), m.Sub(point, curr))

		if crossPrev > 0 && crossNext < 0 {
			if score := crossPrev - crossNext; left == -1 || score > leftBest {
				left, leftBest = i, score
			}
		} else if crossPrev >= 0 && crossNext <= 0 {
			if left == -1 {
				left, leftBest = i, 0.1
			}
		}

		if crossPrev < 0 && crossNext > 0 {
			if score := crossNext - crossPrev; right == -1 || score > rightBest {
				right, rightBest = i, score
			}
		} else if crossPrev <= 0 && crossNext >= 0 {
			if right == -1 {
				right, rightBest = i, 0.1
			}
		}
	}

	if left == -1 {
		left = 0
	}
	if right == -1 {
		right = n / 2
	}

	if left == right {
		left, right = angularSweepTangents(point, poly)
	}

	if !lineOfSightClear(point, poly, left) {
		for step := 1; step < n; step++ {
			cand := ((left-step)%n + n) % n
			if lineOfSightClear(point, poly, cand) {
				left = cand
				break
			}
		}
	}
	if !lineOfSightClear(point, poly, right) {
		for step := 1; step < n; step++ {
			cand := (right + step) % n
			if lineOfSightClear(point, poly, cand) {
				right = cand
				break
			}
		}
	}

	return left, right
}

// angularSweepTangents falls back to the widest angular gap between
// polygon vertices as seen from point, for the degenerate case where the
// side-of-edge test collapses both tangents onto the same vertex.
func angularSweepTangents(point m.Point2D, poly []m.Point2D) (left, right int) {
	n := len(poly)
	type sweep struct {
		angle float64
		idx   int
	}
	angles := make([]sweep, n)
	for i, v := range poly {
		d := m.Sub(v, point)
		angles[i] = sweep{gomath.Atan2(d[1], d[0]), i}
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && angles[j-1].angle > angles[j].angle; j-- {
			angles[j-1], angles[j] = angles[j], angles[j-1]
		}
	}

	maxGap := -1.0
	gapStart := 0
	for i := 0; i < n; i++ {
		cur := angles[i].angle
		nxt := angles[(i+1)%n].angle
		gap := nxt - cur
		if gap < 0 {
			gap += 2 * gomath.Pi
		}
		if gap > maxGap {
			maxGap = gap
			gapStart = i
		}
	}

	right = angles[gapStart].idx
	left = angles[(gapStart+1)%n].idx
	return left, right
}

func dot(a, b m.Point2D) float64 { return a[0]*b[0] + a[1]*b[1] }

// tangentContinuesTowardGoal rejects a tangent that would send the drone
// away from the goal.
func tangentContinuesTowardGoal(start, tangent, goal m.Point2D) bool {
	return dot(m.Sub(tangent, start), m.Sub(goal, start)) > 0
}

// entryTangentContinuesForward rejects an entry onto the boundary that
// would immediately reverse direction.
func entryTangentContinuesForward(start, first, second m.Point2D) bool {
	return dot(m.Sub(first, start), m.Sub(second, first)) >= 0
}

// exitTangentContinuesTowardGoal rejects an exit off the boundary that
// would reverse the direction of travel along it.
func exitTangentContinuesTowardGoal(exitVertex, goal, prev m.Point2D) bool {
	return dot(m.Sub(exitVertex, prev), m.Sub(goal, exitVertex)) >= 0
}

// findFirstVisibleExit walks poly from startIdx in the given direction
// (+1 CCW, -1 CW) until it reaches a vertex with line-of-sight to goal,
// returning that vertex's index and the arc walked (inclusive of both
// ends). Returns (-1, nil) if the whole polygon is walked without one.
func findFirstVisibleExit(poly []m.Point2D, startIdx, dir int, goal m.Point2D) (int, []m.Point2D) {
	n := len(poly)
	arc := []m.Point2D{poly[startIdx]}
	cur := startIdx
	for step := 0; step < n; step++ {
		if !segmentCrossesPolygon(poly[cur], goal, poly) {
			return cur, arc
		}
		cur = ((cur+dir)%n + n) % n
		arc = append(arc, poly[cur])
	}
	return -1, nil
}

type singleCandidate struct {
	path   []m.Point2D
	length float64
	method string
}

// navigateSinglePolygon finds the shortest tangent-arc-tangent path from
// start to goal around a single convex polygon.
func navigateSinglePolygon(start, goal m.Point2D, poly []m.Point2D) ([]m.Point2D, float64, string) {
	n := len(poly)
	if n < 3 {
		return []m.Point2D{start, goal}, m.Distance(start, goal), MethodSinglePolygon
	}

	leftIdx, rightIdx := findTangentVertices(start, poly)

	candidates := buildSinglePolygonCandidates(start, goal, poly, leftIdx, rightIdx, true)
	if len(candidates) == 0 {
		candidates = buildSinglePolygonCandidates(start, goal, poly, leftIdx, rightIdx, false)
	}
	if len(candidates) == 0 {
		return nil, gomath.Inf(1), MethodInvalidNoPath
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.length < best.length {
			best = c
		}
	}
	return best.path, best.length, best.method
}

func buildSinglePolygonCandidates(start, goal m.Point2D, poly []m.Point2D, leftIdx, rightIdx int, strict bool) []singleCandidate {
	var out []singleCandidate
	for _, tangentIdx := range [2]int{leftIdx, rightIdx} {
		tangent := poly[tangentIdx]
		if strict && !tangentContinuesTowardGoal(start, tangent, goal) {
			continue
		}
		for _, dir := range [2]int{-1, 1} {
			exitIdx, arc := findFirstVisibleExit(poly, tangentIdx, dir, goal)
			if exitIdx == -1 || len(arc) == 0 {
				continue
			}

			if strict && len(arc) >= 2 {
				if !entryTangentContinuesForward(start, arc[0], arc[1]) {
					continue
				}
				if !exitTangentContinuesTowardGoal(arc[len(arc)-1], goal, arc[len(arc)-2]) {
					continue
				}
			}

			path := make([]m.Point2D, 0, len(arc)+2)
			path = append(path, start)
			path = append(path, arc...)
			path = append(path, goal)

			if !ValidatePath(path, [][]m.Point2D{poly}) {
				continue
			}
			out = append(out, singleCandidate{path: path, length: pathLength(path), method: MethodSinglePolygon})
		}
	}
	return out
}
