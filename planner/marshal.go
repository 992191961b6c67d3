// planner/marshal.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"encoding/json"

	"github.com/iancoleman/orderedmap"

	m "github.com/isrplan/planner/math"
)

// MarshalSolution serializes sol to JSON with RoutesByDrone and
// TrajectoriesByDrone keyed in droneOrder (the order the caller's
// drone_configs were given) rather than Go's alphabetical map-key
// ordering, so a rendered report lists drones the way the caller
// configured them.
func MarshalSolution(sol *Solution, droneOrder []string) ([]byte, error) {
	routes := orderedmap.New()
	trajectories := orderedmap.New()
	allocations := orderedmap.New()
	for _, id := range droneOrder {
		if r, ok := sol.RoutesByDrone[id]; ok {
			routes.Set(id, r)
		}
		if t, ok := sol.TrajectoriesByDrone[id]; ok {
			trajectories.Set(id, t)
		}
		if a, ok := sol.AllocationsByDrone[id]; ok {
			allocations.Set(id, a)
		}
	}

	out := struct {
		RoutesByDrone       *orderedmap.OrderedMap `json:"routes_by_drone"`
		AllocationsByDrone  *orderedmap.OrderedMap `json:"allocations_by_drone"`
		TrajectoriesByDrone *orderedmap.OrderedMap `json:"trajectories_by_drone"`
		TotalPrize          int                    `json:"total_prize"`
		TotalFuel           float64                `json:"total_fuel"`
		WrappedPolygons     [][]m.Point2D          `json:"wrapped_polygons"`
		ExcludedTargets     []string               `json:"excluded_targets"`
	}{routes, allocations, trajectories, sol.TotalPrize, sol.TotalFuel, sol.WrappedPolygons, sol.ExcludedTargets}

	return json.Marshal(out)
}
