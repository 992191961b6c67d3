// planner/coverage.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import "sort"

// Coverage summarizes how much of an environment a Solution covered.
type Coverage struct {
	Visited        int
	TotalTargets   int
	PrizeCollected int
	PrizePossible  int
	TotalLength    float64
	Unvisited      []string
}

// CoverageStats reports how much of env sol actually covered: how many
// targets were visited, how much priority was collected versus
// possible, total fleet length flown, and which targets were never
// visited by any drone.
func CoverageStats(sol *Solution, env *Environment) Coverage {
	visited := map[string]bool{}
	for _, r := range sol.RoutesByDrone {
		for _, id := range r.Visited {
			visited[id] = true
		}
	}

	stats := Coverage{TotalTargets: len(env.Targets), TotalLength: sol.TotalFuel, PrizeCollected: sol.TotalPrize}
	for _, t := range env.Targets {
		stats.PrizePossible += t.Priority
		if visited[t.ID] {
			stats.Visited++
		} else {
			stats.Unvisited = append(stats.Unvisited, t.ID)
		}
	}
	sort.Strings(stats.Unvisited)
	return stats
}
