// postopt/postopt.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package postopt runs the three fleet-solution refinement passes:
// insertion of targets no drone visited, cross-drone reassignment of
// targets that sit closer to another drone's trajectory, and per-drone
// 2-opt removal of self-crossing route segments. Each pass is idempotent
// on a converged input; Run repeats the swap-closer pass until it finds
// no beneficial swap or reaches its iteration cap.
package postopt

import (
	"math"
	"sort"

	"github.com/isrplan/planner/distmat"
	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/trajectory"
)

// TargetInfo is the post-optimizer's view of one target in the
// environment, independent of which (if any) drone currently visits it.
type TargetInfo struct {
	ID       string
	Priority int
	Type     string
}

// DroneState is one drone's mutable route/trajectory/bookkeeping, shared
// across all three passes and updated in place.
type DroneState struct {
	ID          string
	Route       []string // waypoint ids, start..end inclusive
	Trajectory  trajectory.Trajectory
	Length      float64
	Prize       int
	Visited     []string
	Budget      float64
	AccessTypes map[string]bool // empty means all types
}

func (d *DroneState) accepts(targetType string) bool {
	if len(d.AccessTypes) == 0 {
		return true
	}
	return d.AccessTypes[targetType]
}

// Input is everything the three passes need. Drones is mutated in
// place; Targets and Matrix are read-only.
type Input struct {
	Matrix  *distmat.Matrix
	PosOf   trajectory.PosOf
	Targets map[string]TargetInfo
	Drones  []*DroneState

	// SwapIterationsMax bounds how many swap-closer invocations Run
	// performs; defaults to 8 when zero.
	SwapIterationsMax int
}

func (in *Input) dist(a, b string) float64 {
	return in.Matrix.DistanceBetween(a, b)
}

// Run executes insert-missed, then swap-closer (repeated to a fixed
// point or SwapIterationsMax, whichever comes first), then crossing
// removal, regenerating trajectories after any pass that changed a
// route.
func Run(in *Input) {
	maxSwap := in.SwapIterationsMax
	if maxSwap <= 0 {
		maxSwap = 8
	}

	if insertMissed(in) {
		regenerateAll(in)
	}

	for i := 0; i < maxSwap; i++ {
		if !swapCloserOnce(in) {
			break
		}
		regenerateAll(in)
	}

	if crossingRemoval(in) {
		regenerateAll(in)
	}
}

func regenerateAll(in *Input) {
	for _, d := range in.Drones {
		d.Trajectory = trajectory.Materialize(d.Route, in.Matrix, in.PosOf)
		d.Length = routeLength(d.Route, in)
	}
}

func routeLength(route []string, in *Input) float64 {
	var total float64
	for i := 0; i+1 < len(route); i++ {
		total += in.dist(route[i], route[i+1])
	}
	return total
}

///////////////////////////////////////////////////////////////////////////
// (a) insert-missed

func visitedSet(in *Input) map[string]bool {
	visited := map[string]bool{}
	for _, d := range in.Drones {
		for _, id := range d.Visited {
			visited[id] = true
		}
	}
	return visited
}

func unvisitedSortedByPriority(in *Input) []TargetInfo {
	visited := visitedSet(in)
	var out []TargetInfo
	for id, t := range in.Targets {
		if !visited[id] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// cheapestInsertion returns the lowest-Δ feasible interior insertion
// position for target t into d's route (index i means "after
// d.Route[i]"), or (-1, +Inf) if none fits within budget.
func cheapestInsertion(d *DroneState, t TargetInfo, in *Input) (pos int, delta float64) {
	pos, delta = -1, math.Inf(1)
	for i := 0; i+1 < len(d.Route); i++ {
		a, b := d.Route[i], d.Route[i+1]
		cand := in.dist(a, t.ID) + in.dist(t.ID, b) - in.dist(a, b)
		if !m.IsFinite(cand) {
			continue
		}
		if d.Length+cand > d.Budget+m.EpsBudget {
			continue
		}
		if cand < delta-1e-9 || (cand <= delta+1e-9 && pos >= 0 && i < pos) {
			pos, delta = i, cand
		}
	}
	return pos, delta
}

func insertAt(route []string, pos int, id string) []string {
	out := make([]string, 0, len(route)+1)
	out = append(out, route[:pos+1]...)
	out = append(out, id)
	out = append(out, route[pos+1:]...)
	return out
}

// insertMissed runs pass (a) to a fixed point and reports whether any
// route changed.
func insertMissed(in *Input) bool {
	changedAny := false
	for {
		changedThisPass := false
		for _, t := range unvisitedSortedByPriority(in) {
			bestDrone := -1
			bestPos := -1
			bestDelta := math.Inf(1)
			for di, d := range in.Drones {
				if !d.accepts(t.Type) {
					continue
				}
				if d.Budget-d.Length <= m.EpsBudget {
					continue
				}
				pos, delta := cheapestInsertion(d, t, in)
				if pos < 0 {
					continue
				}
				if delta < bestDelta-1e-9 || (delta <= bestDelta+1e-9 && (bestDrone < 0 || d.ID < in.Drones[bestDrone].ID)) {
					bestDrone, bestPos, bestDelta = di, pos, delta
				}
			}
			if bestDrone < 0 {
				continue
			}
			d := in.Drones[bestDrone]
			d.Route = insertAt(d.Route, bestPos, t.ID)
			d.Length += bestDelta
			d.Prize += t.Priority
			d.Visited = append(d.Visited, t.ID)
			changedThisPass = true
			changedAny = true
		}
		if !changedThisPass {
			break
		}
	}
	return changedAny
}

///////////////////////////////////////////////////////////////////////////
// (b) swap-closer

// segMinDist returns the minimum perpendicular distance from p to any
// segment of traj.
func segMinDist(p m.Point2D, traj trajectory.Trajectory) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(traj.Points); i++ {
		d := m.PointSegmentDistance(p, traj.Points[i], traj.Points[i+1])
		if d < best {
			best = d
		}
	}
	return best
}

// trajectoryIndexOf finds the index of pos within traj's point list
// (every route waypoint is guaranteed to appear as a vertex).
func trajectoryIndexOf(traj trajectory.Trajectory, pos m.Point2D) int {
	for i, p := range traj.Points {
		if m.Distance(p, pos) < m.EpsCoincide {
			return i
		}
	}
	return -1
}

type swapCandidate struct {
	fromDrone, toDrone int
	routeIdx, insertAt int
	target             string
	net                float64
}

// swapCloserOnce scans for a single beneficial cross-drone reassignment
// and performs at most one: the SSD/OSD comparison plus net-cost check
// per §4.8(b). Exactly one swap per invocation is the convergence rule.
func swapCloserOnce(in *Input) bool {
	var best *swapCandidate

	for ai, da := range in.Drones {
		for ri := 1; ri+1 < len(da.Route); ri++ {
			tid := da.Route[ri]
			tinfo, isTarget := in.Targets[tid]
			if !isTarget {
				continue
			}
			pos, ok := in.PosOf(tid)
			if !ok {
				continue
			}
			idx := trajectoryIndexOf(da.Trajectory, pos)
			if idx <= 0 || idx >= len(da.Trajectory.Points)-1 {
				continue
			}
			ssd := m.PointSegmentDistance(pos, da.Trajectory.Points[idx-1], da.Trajectory.Points[idx+1])
			removeSavings := in.dist(da.Route[ri-1], tid) + in.dist(tid, da.Route[ri+1]) - in.dist(da.Route[ri-1], da.Route[ri+1])

			for bi, db := range in.Drones {
				if bi == ai || !db.accepts(tinfo.Type) {
					continue
				}
				osd := segMinDist(pos, db.Trajectory)
				if !(osd < ssd-1e-9) {
					continue
				}
				insertPos, delta := cheapestInsertion(db, tinfo, in)
				if insertPos < 0 {
					continue
				}
				net := delta - removeSavings
				if net < -1e-9 {
					if best == nil || net < best.net {
						best = &swapCandidate{fromDrone: ai, toDrone: bi, routeIdx: ri, insertAt: insertPos, target: tid, net: net}
					}
				}
			}
		}
	}

	if best == nil {
		return false
	}

	from := in.Drones[best.fromDrone]
	to := in.Drones[best.toDrone]

	removeSavings := in.dist(from.Route[best.routeIdx-1], best.target) +
		in.dist(best.target, from.Route[best.routeIdx+1]) -
		in.dist(from.Route[best.routeIdx-1], from.Route[best.routeIdx+1])

	newFromRoute := append(append([]string{}, from.Route[:best.routeIdx]...), from.Route[best.routeIdx+1:]...)
	from.Route = newFromRoute
	from.Length -= removeSavings
	from.Prize -= in.Targets[best.target].Priority
	from.Visited = removeFromSlice(from.Visited, best.target)

	_, delta := cheapestInsertion(to, in.Targets[best.target], in)
	to.Route = insertAt(to.Route, best.insertAt, best.target)
	to.Length += delta
	to.Prize += in.Targets[best.target].Priority
	to.Visited = append(to.Visited, best.target)

	return true
}

func removeFromSlice(s []string, id string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

///////////////////////////////////////////////////////////////////////////
// (c) crossing removal (2-opt)

// crossingRemoval scans each drone's route independently for a pair of
// non-adjacent edges (by waypoint position, not materialized
// trajectory) that intersect as closed segments (so edges that only
// share an endpoint also qualify), reversing the sub-route between
// them when that strictly shortens the route. Iterates to a fixed
// point or a 2*n^2 candidate-check cap.
func crossingRemoval(in *Input) bool {
	changedAny := false
	for _, d := range in.Drones {
		if changed := uncross(d, in); changed {
			changedAny = true
		}
	}
	return changedAny
}

func uncross(d *DroneState, in *Input) bool {
	n := len(d.Route)
	if n < 4 {
		return false
	}
	maxChecks := 2 * n * n
	changedAny := false
	checks := 0

	for {
		improved := false
		for i := 0; i <= n-3 && checks < maxChecks; i++ {
			for j := i + 2; j <= n-2 && checks < maxChecks; j++ {
				checks++
				a, ok1 := in.PosOf(d.Route[i])
				b, ok2 := in.PosOf(d.Route[i+1])
				c, ok3 := in.PosOf(d.Route[j])
				e, ok4 := in.PosOf(d.Route[j+1])
				if !ok1 || !ok2 || !ok3 || !ok4 {
					continue
				}
				if !m.SegmentsIntersect(a, b, c, e) {
					continue
				}
				candidate := reverseSegment(d.Route, i+1, j)
				newLen := routeLength(candidate, in)
				if newLen < d.Length-1e-9 {
					d.Route = candidate
					d.Length = newLen
					improved = true
					changedAny = true
				}
			}
		}
		if !improved || checks >= maxChecks {
			break
		}
	}
	return changedAny
}

func reverseSegment(route []string, i, j int) []string {
	out := append([]string{}, route...)
	for i < j {
		out[i], out[j] = out[j], out[i]
		i++
		j--
	}
	return out
}
