// math/geom.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "sort"

// Point2D is a point or vector in the 2-D planning map. Names on the
// arithmetic helpers below are kept short since they clutter call sites
// otherwise.
type Point2D [2]float64

func Add(a, b Point2D) Point2D { return Point2D{a[0] + b[0], a[1] + b[1]} }
func Sub(a, b Point2D) Point2D { return Point2D{a[0] - b[0], a[1] - b[1]} }
func Scale(a Point2D, s float64) Point2D { return Point2D{a[0] * s, a[1] * s} }
func Mid(a, b Point2D) Point2D { return Scale(Add(a, b), 0.5) }

func Dot(a, b Point2D) float64 { return a[0]*b[0] + a[1]*b[1] }

// Cross is the z-component of the 3-D cross product of (a,b); positive
// means b is counter-clockwise from a.
func Cross(a, b Point2D) float64 { return a[0]*b[1] - a[1]*b[0] }

func Length(v Point2D) float64 { return Sqrt(Dot(v, v)) }

func Distance(a, b Point2D) float64 { return Length(Sub(a, b)) }

func DistanceSq(a, b Point2D) float64 { d := Sub(a, b); return Dot(d, d) }

func Normalize(v Point2D) Point2D {
	l := Length(v)
	if l == 0 {
		return Point2D{0, 0}
	}
	return Scale(v, 1/l)
}

// Orientation returns the sign of the cross product of (b-a) and (c-a):
// >0 counter-clockwise, <0 clockwise, 0 collinear (within EpsOrient).
func Orientation(a, b, c Point2D) int {
	cr := Cross(Sub(b, a), Sub(c, a))
	if cr > EpsOrient {
		return 1
	} else if cr < -EpsOrient {
		return -1
	}
	return 0
}

// OnSegment reports whether p lies on the closed segment [a,b], assuming
// a, b, p are already known to be collinear (or nearly so).
func OnSegment(p, a, b Point2D) bool {
	if Orientation(a, b, p) != 0 {
		return false
	}
	minX, maxX := a[0], b[0]
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a[1], b[1]
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p[0] >= minX-EpsCoincide && p[0] <= maxX+EpsCoincide &&
		p[1] >= minY-EpsCoincide && p[1] <= maxY+EpsCoincide
}

// SegmentsIntersect reports whether closed segments (p1,p2) and (p3,p4)
// intersect, correctly handling the four collinear boundary cases.
func SegmentsIntersect(p1, p2, p3, p4 Point2D) bool {
	o1 := Orientation(p1, p2, p3)
	o2 := Orientation(p1, p2, p4)
	o3 := Orientation(p3, p4, p1)
	o4 := Orientation(p3, p4, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}

	if o1 == 0 && OnSegment(p3, p1, p2) {
		return true
	}
	if o2 == 0 && OnSegment(p4, p1, p2) {
		return true
	}
	if o3 == 0 && OnSegment(p1, p3, p4) {
		return true
	}
	if o4 == 0 && OnSegment(p2, p3, p4) {
		return true
	}
	return false
}

// SegmentIntersection returns the intersection point of the infinite
// lines through (p1,p2) and (p3,p4), and whether one exists (false for
// parallel or near-parallel lines).
func SegmentIntersection(p1, p2, p3, p4 Point2D) (Point2D, bool) {
	d12 := Sub(p1, p2)
	d34 := Sub(p3, p4)
	denom := d12[0]*d34[1] - d12[1]*d34[0]
	if Abs(denom) < EpsOrient {
		return Point2D{}, false
	}
	a := p1[0]*p2[1] - p1[1]*p2[0]
	b := p3[0]*p4[1] - p3[1]*p4[0]
	x := (a*(p3[0]-p4[0]) - (p1[0]-p2[0])*b) / denom
	y := (a*(p3[1]-p4[1]) - (p1[1]-p2[1])*b) / denom
	return Point2D{x, y}, true
}

// PointSegmentDistance returns the minimum distance from p to the closed
// segment [v,w], via the clamped projection of p onto the line through
// v and w.
func PointSegmentDistance(p, v, w Point2D) float64 {
	l2 := DistanceSq(v, w)
	if l2 == 0 {
		return Distance(p, v)
	}
	t := Clamp(Dot(Sub(p, v), Sub(w, v))/l2, 0, 1)
	proj := Add(v, Scale(Sub(w, v), t))
	return Distance(p, proj)
}

// PointSegmentProjection is like PointSegmentDistance but also returns
// the clamped parameter t in [0,1] and the projected point, so callers
// (e.g. the post-optimizer's SSD/OSD checks) don't recompute it.
func PointSegmentProjection(p, v, w Point2D) (t float64, proj Point2D, dist float64) {
	l2 := DistanceSq(v, w)
	if l2 == 0 {
		return 0, v, Distance(p, v)
	}
	t = Clamp(Dot(Sub(p, v), Sub(w, v))/l2, 0, 1)
	proj = Add(v, Scale(Sub(w, v), t))
	return t, proj, Distance(p, proj)
}

// PointInPolygon reports whether p lies strictly inside the polygon
// described by pts (CCW or CW, last vertex does not repeat the first),
// via ray casting. Points on the boundary are NOT reported as inside;
// drones may traverse an obstacle's boundary, only its interior is
// forbidden.
func PointInPolygon(p Point2D, pts []Point2D) bool {
	if len(pts) < 3 {
		return false
	}
	// Boundary points are explicitly not interior.
	for i := 0; i < len(pts); i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if Orientation(a, b, p) == 0 && OnSegment(p, a, b) {
			return false
		}
	}

	inside := false
	for i := 0; i < len(pts); i++ {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		if (p0[1] <= p[1] && p[1] < p1[1]) || (p1[1] <= p[1] && p[1] < p0[1]) {
			x := p0[0] + (p[1]-p0[1])*(p1[0]-p0[0])/(p1[1]-p0[1])
			if x > p[0] {
				inside = !inside
			}
		}
	}
	return inside
}

// SegmentIntersectsPolygonInterior reports whether any interior point of
// the open segment (a,b) lies strictly inside the polygon. Used to
// validate candidate edges against the obstacle field: touching a vertex
// or running along an edge is allowed, cutting through the interior is
// not.
func SegmentIntersectsPolygonInterior(a, b Point2D, pts []Point2D) bool {
	const samples = 21 // >= 20 interior samples per the exclusion-safety test
	for i := 1; i < samples; i++ {
		t := float64(i) / float64(samples)
		p := Lerp2D(t, a, b)
		if PointInPolygon(p, pts) {
			return true
		}
	}
	return false
}

func Lerp2D(t float64, a, b Point2D) Point2D {
	return Point2D{Lerp(t, a[0], b[0]), Lerp(t, a[1], b[1])}
}

// ConvexHull returns the convex hull of points in CCW order via the
// monotone chain algorithm. The input slice is sorted in place.
func ConvexHull(points []Point2D) []Point2D {
	n := len(points)
	if n <= 2 {
		return append([]Point2D{}, points...)
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i][0] == points[j][0] {
			return points[i][1] < points[j][1]
		}
		return points[i][0] < points[j][0]
	})

	cross := func(o, a, b Point2D) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	lower := make([]Point2D, 0, n)
	for _, p := range points {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	upper := make([]Point2D, 0, n)
	for i := n - 1; i >= 0; i-- {
		p := points[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// PolygonArea2 returns twice the signed area of the polygon (positive
// for CCW). Useful as a cheap CCW/CW test without a separate helper.
func PolygonArea2(pts []Point2D) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return a
}

// EnsureCCW returns pts reordered to be counter-clockwise if it is
// currently clockwise.
func EnsureCCW(pts []Point2D) []Point2D {
	if PolygonArea2(pts) < 0 {
		out := make([]Point2D, len(pts))
		for i, p := range pts {
			out[len(pts)-1-i] = p
		}
		return out
	}
	return pts
}
