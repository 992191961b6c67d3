// math/core.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package math provides the 2-D geometry and numeric primitives shared by
// every planning component: point/vector arithmetic, orientation and
// intersection predicates, convex hulls, and the named tolerances that
// every predicate is built around.
//
// All coordinates are float64; the environment format (see the planner
// package) is specified in 64-bit floats and the path oracle's tolerances
// (1e-9 for orientation, 1e-6 for coincidence) need that precision to stay
// meaningful over a map with a several-thousand-unit span.
package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Named tolerances. Predicates must use these, not inline literals.
const (
	// EpsOrient bounds the cross-product magnitude below which three
	// points are treated as collinear.
	EpsOrient = 1e-9
	// EpsCoincide bounds the distance below which two points, or a point
	// and a line, are treated as coincident.
	EpsCoincide = 1e-6
	// EpsBudget is the slack allowed when comparing a route length
	// against a fuel budget.
	EpsBudget = 1e-6
	// SAMSampleStepMin is the default minimum chord length (in map
	// units) used when tessellating a SAM disk's circumference.
	SAMSampleStepMin = 2.0
)

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Clamp[T constraints.Ordered](x, low, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(t, a, b float64) float64 {
	return (1-t)*a + t*b
}

func Sqrt(x float64) float64 { return gomath.Sqrt(x) }

func Radians(deg float64) float64 { return deg / 180 * gomath.Pi }

func Degrees(rad float64) float64 { return rad * 180 / gomath.Pi }

func IsFinite(x float64) bool { return !gomath.IsNaN(x) && !gomath.IsInf(x, 0) }
