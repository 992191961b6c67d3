// sam/wrap.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sam wraps overlapping SAM exclusion disks into disjoint convex
// polygons. It is the single source of truth for obstacle geometry: every
// downstream path check uses the polygons it produces, never the original
// circles.
package sam

import (
	gomath "math"

	m "github.com/isrplan/planner/math"
)

// Disk is a circular exclusion zone.
type Disk struct {
	Center m.Point2D
	Radius float64
}

// Polygon is a CCW-ordered convex obstacle boundary.
type Polygon struct {
	Vertices []m.Point2D
	// SourceIndices lists, in input order, the indices into the Disk
	// slice that this polygon wraps.
	SourceIndices []int
}

func overlap(a, b Disk) bool {
	return m.Distance(a.Center, b.Center) <= a.Radius+b.Radius
}

// union-find over disk indices, clustering pairwise-overlapping disks.
type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(x, y int) {
	px, py := u.find(x), u.find(y)
	if px != py {
		u.parent[px] = py
	}
}

// sampleCircle samples a disk's circumference so adjacent chord length is
// approximately minSeg, clamped so each circle yields at least 8 samples
// and the step angle lies in [5°,30°].
func sampleCircle(d Disk, minSeg float64) []m.Point2D {
	if d.Radius <= 0 {
		return []m.Point2D{d.Center}
	}

	dtheta := minSeg / gomath.Max(d.Radius, 1e-3)
	dtheta = m.Clamp(dtheta, m.Radians(5), m.Radians(30))

	n := int(gomath.Ceil(2 * gomath.Pi / dtheta))
	if n < 8 {
		n = 8
	}
	step := 2 * gomath.Pi / float64(n)

	pts := make([]m.Point2D, n)
	for i := 0; i < n; i++ {
		theta := float64(i) * step
		pts[i] = m.Point2D{d.Center[0] + d.Radius*gomath.Cos(theta), d.Center[1] + d.Radius*gomath.Sin(theta)}
	}
	return pts
}

// enforceMinEdgeLength merges adjacent hull vertices closer than minSeg
// into their midpoint, iterating to a fixed point while the polygon
// retains at least 3 vertices.
func enforceMinEdgeLength(poly []m.Point2D, minSeg float64) []m.Point2D {
	if len(poly) <= 2 {
		return append([]m.Point2D{}, poly...)
	}

	pts := append([]m.Point2D{}, poly...)
	maxIterations := len(poly) + 5
	for iter := 0; iter < maxIterations && len(pts) > 2; iter++ {
		changed := false
		out := make([]m.Point2D, 0, len(pts))
		n := len(pts)
		i := 0
		for i < n {
			a := pts[i]
			b := pts[(i+1)%n]
			if m.Distance(a, b) < minSeg {
				out = append(out, m.Mid(a, b))
				i += 2
				changed = true
			} else {
				out = append(out, a)
				i++
			}
		}
		if len(out) < 3 {
			// merging collapsed the polygon too far; keep the
			// pre-merge vertex set instead.
			return append([]m.Point2D{}, poly...)
		}
		pts = out
		if !changed {
			break
		}
	}
	return pts
}

// Wrap clusters overlapping disks via union-find and returns one convex
// polygon per cluster (isolated disks produce their own single-disk
// polygon). minSeg is the target minimum chord/edge length; callers
// should pass m.SAMSampleStepMin absent an explicit override.
func Wrap(disks []Disk, minSeg float64) []Polygon {
	if len(disks) == 0 {
		return nil
	}
	if minSeg <= 0 {
		minSeg = m.SAMSampleStepMin
	}

	uf := newUnionFind(len(disks))
	for i := 0; i < len(disks); i++ {
		for j := i + 1; j < len(disks); j++ {
			if overlap(disks[i], disks[j]) {
				uf.union(i, j)
			}
		}
	}

	clusters := map[int][]int{}
	roots := make([]int, 0)
	for i := range disks {
		r := uf.find(i)
		if _, ok := clusters[r]; !ok {
			roots = append(roots, r)
		}
		clusters[r] = append(clusters[r], i)
	}
	// Deterministic polygon ordering by the cluster's smallest source
	// index, not by the union-find root id.
	sortRootsBySmallestMember(roots, clusters)

	var polys []Polygon
	for _, r := range roots {
		members := clusters[r]
		var pts []m.Point2D
		for _, idx := range members {
			pts = append(pts, sampleCircle(disks[idx], minSeg)...)
		}
		if len(pts) == 0 {
			continue
		}
		hull := m.ConvexHull(pts)
		hull = enforceMinEdgeLength(hull, minSeg)
		if len(hull) < 3 {
			continue
		}
		hull = m.EnsureCCW(hull)
		polys = append(polys, Polygon{Vertices: hull, SourceIndices: sortedCopy(members)})
	}
	return polys
}

func sortedCopy(idx []int) []int {
	out := append([]int{}, idx...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func sortRootsBySmallestMember(roots []int, clusters map[int][]int) {
	smallest := func(r int) int {
		min := clusters[r][0]
		for _, v := range clusters[r] {
			if v < min {
				min = v
			}
		}
		return min
	}
	for i := 1; i < len(roots); i++ {
		for j := i; j > 0 && smallest(roots[j-1]) > smallest(roots[j]); j-- {
			roots[j-1], roots[j] = roots[j], roots[j-1]
		}
	}
}
