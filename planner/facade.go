// planner/facade.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"

	"github.com/isrplan/planner/allocate"
	"github.com/isrplan/planner/distmat"
	"github.com/isrplan/planner/log"
	m "github.com/isrplan/planner/math"
	"github.com/isrplan/planner/orienteer"
	"github.com/isrplan/planner/postopt"
	"github.com/isrplan/planner/sam"
	"github.com/isrplan/planner/trajectory"
)

// Options recognized by Solve, per the external-interfaces table.
// UseSAMAwareDistances is carried but not read: Solve always plans on the
// SAM-aware distance matrix, whatever its value.
type Options struct {
	PostOptimize         bool
	UseSAMAwareDistances bool
	SwapIterationsMax    int
}

// DefaultOptions returns the documented defaults: post-optimize on,
// SAM-aware distances on, eight swap-closer invocations.
func DefaultOptions() Options {
	return Options{PostOptimize: true, UseSAMAwareDistances: true, SwapIterationsMax: 8}
}

// MatrixSummary is prepare_matrix's result: enough to report on the
// distance matrix without exposing its internal cache representation.
type MatrixSummary struct {
	LabelCount         int
	NonDirectPathCount int
	ExcludedTargets    []string
}

// Facade is the planner's single public entry point: it owns the
// process-wide distance-matrix cache and the operations that read or
// invalidate it.
type Facade struct {
	cache *distmat.Cache
	log   *log.Logger
}

// NewFacade creates a Facade with an empty matrix cache. A nil logger
// is valid; diagnostics are then discarded except warnings/errors,
// which still reach the default slog logger.
func NewFacade(lg *log.Logger) *Facade {
	return &Facade{cache: distmat.NewCache(), log: lg}
}

// ClearMatrix empties the distance-matrix cache. Collaborators must
// call this themselves on environment edits; the core never
// auto-invalidates.
func (f *Facade) ClearMatrix() {
	f.cache.Clear()
}

// PrepareMatrix builds or fetches the cached distance matrix for env
// and reports a summary of it.
func (f *Facade) PrepareMatrix(env *Environment, buffer float64) (*MatrixSummary, error) {
	if env == nil {
		return nil, &ErrInputMalformed{Reason: "nil environment"}
	}
	mt := f.buildMatrix(env, nil, buffer)
	nonDirect := len(mt.StoredPaths)
	return &MatrixSummary{
		LabelCount:         len(mt.Labels),
		NonDirectPathCount: nonDirect,
		ExcludedTargets:    append([]string{}, mt.ExcludedTargets...),
	}, nil
}

func (f *Facade) buildMatrix(env *Environment, drones []DroneConfig, buffer float64) *distmat.Matrix {
	return f.buildMatrixFromInput(buildMatrixInput(env, drones, buffer))
}

func (f *Facade) buildMatrixFromInput(in distmat.Input) *distmat.Matrix {
	fp, err := distmat.Fingerprint(in)
	if err != nil {
		// Fingerprinting only fails on msgpack encoding errors, which
		// cannot happen for the plain value types built here; treat it
		// as uncached rather than panicking.
		f.log.Warnf("distance matrix fingerprint failed, bypassing cache: %v", err)
		return distmat.Build(in)
	}
	return f.cache.GetOrBuild(f.log, fp, func() *distmat.Matrix { return distmat.Build(in) })
}

func buildMatrixInput(env *Environment, drones []DroneConfig, buffer float64) distmat.Input {
	wpMap := map[string]distmat.Waypoint{}
	for _, a := range env.Airports {
		wpMap[a.ID] = distmat.Waypoint{ID: a.ID, Pos: a.Pos(), IsAirport: true}
	}
	for _, t := range env.Targets {
		wpMap[t.ID] = distmat.Waypoint{ID: t.ID, Pos: t.Pos(), IsTarget: true}
	}
	for id, p := range env.SyntheticStarts {
		if _, ok := wpMap[id]; !ok {
			wpMap[id] = distmat.Waypoint{ID: id, Pos: p}
		}
	}
	for _, dc := range drones {
		if dc.SyntheticStart != nil {
			if _, ok := wpMap[dc.StartID]; !ok {
				wpMap[dc.StartID] = distmat.Waypoint{ID: dc.StartID, Pos: *dc.SyntheticStart}
			}
		}
	}

	labels := make([]string, 0, len(wpMap))
	for id := range wpMap {
		labels = append(labels, id)
	}
	sort.Strings(labels)

	waypoints := make([]distmat.Waypoint, len(labels))
	for i, id := range labels {
		waypoints[i] = wpMap[id]
	}

	disks := make([]sam.Disk, len(env.SAMs))
	for i, s := range env.SAMs {
		disks[i] = sam.Disk{Center: s.Pos(), Radius: s.Radius}
	}

	return distmat.Input{Waypoints: waypoints, SAMs: disks, Buffer: buffer}
}

func posLookupFromInput(in distmat.Input) trajectory.PosOf {
	byID := make(map[string]m.Point2D, len(in.Waypoints))
	for _, wp := range in.Waypoints {
		byID[wp.ID] = wp.Pos
	}
	return func(id string) (m.Point2D, bool) { p, ok := byID[id]; return p, ok }
}

///////////////////////////////////////////////////////////////////////////
// drone contracts (4.9 step 1)

type droneContract struct {
	StartID       string
	EndIsFree     bool
	EndCandidates []string
	Budget        float64
	Access        map[TargetType]bool
}

func (f *Facade) deriveContracts(env *Environment, drones []DroneConfig, mt *distmat.Matrix) (map[string]droneContract, error) {
	var realAirportIDs []string
	for _, a := range env.Airports {
		realAirportIDs = append(realAirportIDs, a.ID)
	}
	sort.Strings(realAirportIDs)

	out := make(map[string]droneContract, len(drones))
	for _, dc := range drones {
		if mt.IndexOf(dc.StartID) < 0 {
			return nil, &ErrInfeasibleContract{DroneID: dc.ID, Reason: fmt.Sprintf("unknown start waypoint %q", dc.StartID)}
		}

		contract := droneContract{StartID: dc.StartID, Budget: dc.FuelBudget, Access: dc.AccessibleTypes}
		if dc.EndIsFree() {
			if len(realAirportIDs) == 0 {
				return nil, &ErrInfeasibleContract{DroneID: dc.ID, Reason: "end_id is ANY but no real airports exist"}
			}
			contract.EndIsFree = true
			contract.EndCandidates = realAirportIDs
		} else {
			if mt.IndexOf(dc.EndID) < 0 {
				return nil, &ErrInfeasibleContract{DroneID: dc.ID, Reason: fmt.Sprintf("unknown end waypoint %q", dc.EndID)}
			}
			contract.EndCandidates = []string{dc.EndID}
		}
		out[dc.ID] = contract
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////
// Solve (4.9)

// Solve runs the full pipeline: build/fetch the distance matrix,
// allocate targets, solve each enabled drone's orienteering problem,
// materialize trajectories, and optionally post-optimize.
func (f *Facade) Solve(env *Environment, drones []DroneConfig, strategy allocate.Strategy, opts Options) (*Solution, error) {
	if env == nil {
		return nil, &ErrInputMalformed{Reason: "nil environment"}
	}

	var enabled []DroneConfig
	for _, d := range drones {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].ID < enabled[j].ID })

	matrixInput := buildMatrixInput(env, enabled, 0)
	mt := f.buildMatrixFromInput(matrixInput)
	posOf := posLookupFromInput(matrixInput)

	sol := &Solution{
		RoutesByDrone:       map[string]Route{},
		AllocationsByDrone:  map[string][]string{},
		TrajectoriesByDrone: map[string]Trajectory{},
		WrappedPolygons:     deep.MustCopy(mt.Polygons),
		ExcludedTargets:     append([]string{}, mt.ExcludedTargets...),
	}
	if len(enabled) == 0 {
		return sol, nil
	}

	contracts, err := f.deriveContracts(env, enabled, mt)
	if err != nil {
		return nil, err
	}

	targetsByID := make(map[string]Target, len(env.Targets))
	for _, t := range env.Targets {
		targetsByID[t.ID] = t
	}
	excluded := make(map[string]bool, len(mt.ExcludedTargets))
	for _, id := range mt.ExcludedTargets {
		excluded[id] = true
	}

	allocTargets := make([]allocate.Target, 0, len(env.Targets))
	for _, t := range env.Targets {
		if excluded[t.ID] {
			continue
		}
		allocTargets = append(allocTargets, allocate.Target{ID: t.ID, Pos: t.Pos(), Priority: t.Priority, Type: string(t.Type)})
	}

	posToID := make(map[m.Point2D]string, len(mt.Labels))
	for _, wp := range matrixInput.Waypoints {
		posToID[wp.Pos] = wp.ID
	}
	distFn := func(a, b m.Point2D) float64 {
		if ai, ok := posToID[a]; ok {
			if bi, ok2 := posToID[b]; ok2 {
				return mt.DistanceBetween(ai, bi)
			}
		}
		return m.Distance(a, b)
	}

	allocDrones := make([]allocate.Drone, 0, len(enabled))
	for _, dc := range enabled {
		startPos, _ := posOf(contracts[dc.ID].StartID)
		access := map[string]bool{}
		for t := range dc.AccessibleTypes {
			access[string(t)] = true
		}
		allocDrones = append(allocDrones, allocate.Drone{ID: dc.ID, StartPos: startPos, AccessTypes: access})
	}

	allocation := allocate.Allocate(strategy, allocTargets, allocDrones, distFn)
	for id, ts := range allocation {
		sol.AllocationsByDrone[id] = append([]string{}, ts...)
	}

	postDrones := make([]*postopt.DroneState, 0, len(enabled))
	for _, dc := range enabled {
		contract := contracts[dc.ID]
		assigned := sortAssignedByPriorityDesc(allocation[dc.ID], targetsByID)
		if len(assigned) > orienteer.MaxTargets {
			assigned = assigned[:orienteer.MaxTargets]
		}

		route := f.solveDroneRoute(contract, assigned, mt)
		route.DroneID = dc.ID
		traj := trajectory.Materialize(route.Waypoints, mt, posOf)

		sol.RoutesByDrone[dc.ID] = route
		sol.TrajectoriesByDrone[dc.ID] = Trajectory{Points: traj.Points, EdgeErrors: convertEdgeErrors(traj.Errors)}

		access := map[string]bool{}
		for t := range dc.AccessibleTypes {
			access[string(t)] = true
		}
		postDrones = append(postDrones, &postopt.DroneState{
			ID: dc.ID, Route: route.Waypoints, Trajectory: traj, Length: route.Length,
			Prize: route.Prize, Visited: append([]string{}, route.Visited...),
			Budget: dc.FuelBudget, AccessTypes: access,
		})
	}

	if opts.PostOptimize {
		postTargets := make(map[string]postopt.TargetInfo, len(env.Targets))
		for _, t := range env.Targets {
			if excluded[t.ID] {
				continue
			}
			postTargets[t.ID] = postopt.TargetInfo{ID: t.ID, Priority: t.Priority, Type: string(t.Type)}
		}
		swapMax := opts.SwapIterationsMax
		if swapMax <= 0 {
			swapMax = 8
		}
		postopt.Run(&postopt.Input{Matrix: mt, PosOf: posOf, Targets: postTargets, Drones: postDrones, SwapIterationsMax: swapMax})

		for _, ps := range postDrones {
			r := sol.RoutesByDrone[ps.ID]
			r.Waypoints = ps.Route
			r.Length = ps.Length
			r.Prize = ps.Prize
			r.Visited = ps.Visited
			sol.RoutesByDrone[ps.ID] = r
			sol.TrajectoriesByDrone[ps.ID] = Trajectory{Points: ps.Trajectory.Points, EdgeErrors: convertEdgeErrors(ps.Trajectory.Errors)}
		}
	}

	for _, r := range sol.RoutesByDrone {
		sol.TotalPrize += r.Prize
		sol.TotalFuel += r.Length
	}

	if f.log != nil {
		f.log.Debug("solve complete", slog.String("solution", godump.DumpStr(sol)))
	}

	return sol, nil
}

func sortAssignedByPriorityDesc(ids []string, targetsByID map[string]Target) []allocateCandidate {
	out := make([]allocateCandidate, 0, len(ids))
	for _, id := range ids {
		t := targetsByID[id]
		out = append(out, allocateCandidate{ID: id, Priority: t.Priority})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type allocateCandidate struct {
	ID       string
	Priority int
}

// solveDroneRoute runs the orienteering DP for one drone, trying every
// candidate end airport when the contract leaves the end free and
// keeping the best (max prize, then min length, then smallest end id).
func (f *Facade) solveDroneRoute(contract droneContract, candidates []allocateCandidate, mt *distmat.Matrix) Route {
	var best Route
	haveBest := false

	for _, endID := range contract.EndCandidates {
		in := orienteer.Input{
			StartToTarget:  make([]float64, len(candidates)),
			TargetToEnd:    make([]float64, len(candidates)),
			TargetToTarget: make([][]float64, len(candidates)),
			StartToEnd:     mt.DistanceBetween(contract.StartID, endID),
			Targets:        make([]orienteer.Target, len(candidates)),
			Budget:         contract.Budget,
		}
		for i, c := range candidates {
			in.StartToTarget[i] = mt.DistanceBetween(contract.StartID, c.ID)
			in.TargetToEnd[i] = mt.DistanceBetween(c.ID, endID)
			in.Targets[i] = orienteer.Target{ID: c.ID, Priority: c.Priority}
			in.TargetToTarget[i] = make([]float64, len(candidates))
			for j, c2 := range candidates {
				in.TargetToTarget[i][j] = mt.DistanceBetween(c.ID, c2.ID)
			}
		}

		res, err := orienteer.Solve(in)
		if err != nil {
			continue
		}

		wps := []string{contract.StartID}
		var visited []string
		for _, idx := range res.VisitOrder {
			wps = append(wps, candidates[idx].ID)
			visited = append(visited, candidates[idx].ID)
		}
		wps = append(wps, endID)
		route := Route{Waypoints: wps, Length: res.Length, Prize: res.Prize, Visited: visited}

		if !haveBest || betterRoute(route, best, endID, currentEndID(best)) {
			best = route
			haveBest = true
		}
	}
	return best
}

func currentEndID(r Route) string {
	if len(r.Waypoints) == 0 {
		return ""
	}
	return r.Waypoints[len(r.Waypoints)-1]
}

func betterRoute(cand, best Route, candEnd, bestEnd string) bool {
	if cand.Prize != best.Prize {
		return cand.Prize > best.Prize
	}
	if cand.Length != best.Length {
		return cand.Length < best.Length
	}
	return candEnd < bestEnd
}

func convertEdgeErrors(errs []trajectory.EdgeError) []EdgeError {
	out := make([]EdgeError, len(errs))
	for i, e := range errs {
		out[i] = EdgeError{From: e.From, To: e.To, Message: e.Message}
	}
	return out
}
