// oracle/validate.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package oracle

import m "github.com/isrplan/planner/math"

// segmentEntersPolygon reports whether segment a-b has an interior
// sample (sampled at >=20 interior parameters, per the exclusion-safety
// test) strictly inside poly. PointInPolygon already treats boundary
// points as not interior, so those are implicitly permitted.
func segmentEntersPolygon(a, b m.Point2D, poly []m.Point2D) bool {
	const samples = 21
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)
		p := m.Lerp2D(t, a, b)
		if m.PointInPolygon(p, poly) {
			return true
		}
	}
	return false
}

// ValidatePath reports whether every segment of path stays clear of
// every polygon's interior.
func ValidatePath(path []m.Point2D, polygons [][]m.Point2D) bool {
	if len(path) < 2 {
		return true
	}
	for i := 0; i+1 < len(path); i++ {
		for _, poly := range polygons {
			if segmentEntersPolygon(path[i], path[i+1], poly) {
				return false
			}
		}
	}
	return true
}
