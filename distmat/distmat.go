// distmat/distmat.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package distmat computes and caches the all-pairs SAM-aware distance
// matrix that every downstream planning component (allocator,
// orienteering DP, trajectory materializer, post-optimizer) reads from
// instead of re-querying the path oracle.
package distmat

import (
	"math"

	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/oracle"
	"github.com/isrplan/planner/sam"
)

// Waypoint is one labeled point in the planning graph: a real airport,
// a target, or a synthetic start/checkpoint.
type Waypoint struct {
	ID        string
	Pos       m.Point2D
	IsTarget  bool
	IsAirport bool
}

// Input is everything the matrix builder needs, already extracted from
// an Environment so this package has no dependency on the planner
// package (and thus no import cycle with it).
type Input struct {
	Waypoints []Waypoint
	SAMs      []sam.Disk
	Buffer    float64
}

// edgeKey identifies a directed (from,to) pair for the sparse path map.
type edgeKey struct{ from, to string }

// Matrix is the immutable result of building (or fetching) the distance
// matrix for one Input.
type Matrix struct {
	Labels          []string
	index           map[string]int
	Dist            [][]float64
	StoredPaths     map[edgeKey][]m.Point2D // only populated for non-direct edges
	ExcludedTargets []string
	Polygons        [][]m.Point2D
}

// IndexOf returns the row/column index of label, or -1 if absent.
func (mt *Matrix) IndexOf(label string) int {
	if i, ok := mt.index[label]; ok {
		return i
	}
	return -1
}

// DistanceBetween returns dist[from][to], or +Inf if either label is
// unknown.
func (mt *Matrix) DistanceBetween(from, to string) float64 {
	i, j := mt.IndexOf(from), mt.IndexOf(to)
	if i < 0 || j < 0 {
		return posInf
	}
	return mt.Dist[i][j]
}

// PathBetween returns the stored polyline for a non-direct edge, or nil
// if the edge is direct (straight segment implied) or unknown.
func (mt *Matrix) PathBetween(from, to string) []m.Point2D {
	return mt.StoredPaths[edgeKey{from, to}]
}

var posInf = math.Inf(1) // see also oracle's invalid sentinel

// Build computes the full N×N SAM-aware distance matrix for in. Targets
// strictly inside a wrapped SAM polygon, or unreachable from every real
// airport, are reported in ExcludedTargets with distance +Inf to every
// other label.
func Build(in Input) *Matrix {
	polys := sam.Wrap(in.SAMs, in.Buffer)
	polygons := make([][]m.Point2D, len(polys))
	for i, p := range polys {
		polygons[i] = p.Vertices
	}

	n := len(in.Waypoints)
	labels := make([]string, n)
	index := make(map[string]int, n)
	for i, wp := range in.Waypoints {
		labels[i] = wp.ID
		index[wp.ID] = i
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	stored := map[edgeKey][]m.Point2D{}

	insidePolygon := make([]bool, n)
	for i, wp := range in.Waypoints {
		for _, poly := range polygons {
			if m.PointInPolygon(wp.Pos, poly) {
				insidePolygon[i] = true
				break
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				dist[i][j] = 0
				continue
			}
			if insidePolygon[i] || insidePolygon[j] {
				dist[i][j] = posInf
				continue
			}
			res := oracle.FindPath(in.Waypoints[i].Pos, in.Waypoints[j].Pos, polygons)
			if len(res.Path) == 0 {
				dist[i][j] = posInf
				continue
			}
			dist[i][j] = res.Length
			if res.Method != oracle.MethodDirect {
				stored[edgeKey{labels[i], labels[j]}] = res.Path
			}
		}
	}

	var excluded []string
	for i, wp := range in.Waypoints {
		if !wp.IsTarget {
			continue
		}
		if insidePolygon[i] {
			excluded = append(excluded, wp.ID)
			continue
		}
		reachable := false
		for j, other := range in.Waypoints {
			if !other.IsAirport {
				continue
			}
			if dist[j][i] < posInf {
				reachable = true
				break
			}
		}
		if !reachable {
			excluded = append(excluded, wp.ID)
			for k := range in.Waypoints {
				if k == i {
					continue
				}
				dist[i][k], dist[k][i] = posInf, posInf
				delete(stored, edgeKey{labels[i], labels[k]})
				delete(stored, edgeKey{labels[k], labels[i]})
			}
		}
	}

	return &Matrix{
		Labels:          labels,
		index:           index,
		Dist:            dist,
		StoredPaths:     stored,
		ExcludedTargets: excluded,
		Polygons:        polygons,
	}
}
