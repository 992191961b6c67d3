// orienteer/orienteer.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package orienteer solves the per-drone budget-constrained orienteering
// problem: given a fixed start, a fixed end, and a small candidate target
// set, choose the subset and visit order that maximizes collected prize
// without exceeding a fuel budget. The facade is responsible for
// truncating candidates to MaxTargets before calling in; this package
// enforces the limit defensively rather than silently ignoring overflow.
package orienteer

import (
	"math"
	"math/bits"

	m "github.com/isrplan/planner/math"
)

// MaxTargets bounds the candidate set size: Held-Karp over n targets costs
// O(n^2 * 2^n) time and O(n * 2^n) memory, so n must stay small.
const MaxTargets = 12

// Target is one candidate waypoint the drone may choose to visit.
type Target struct {
	ID       string
	Priority int
}

// Input is everything the DP needs for one drone's route.
type Input struct {
	StartToTarget  []float64   // StartToTarget[i]: distance start -> Targets[i]
	TargetToEnd    []float64   // TargetToEnd[i]: distance Targets[i] -> end
	TargetToTarget [][]float64 // TargetToTarget[i][j]: distance Targets[i] -> Targets[j]
	StartToEnd     float64
	Targets        []Target
	Budget         float64
}

// Result is the chosen visit order and its totals.
type Result struct {
	VisitOrder []int // indices into Input.Targets, in visitation order
	Prize      int
	Length     float64
}

// ErrTooManyTargets is returned when len(Input.Targets) exceeds MaxTargets.
type ErrTooManyTargets struct{ N int }

func (e ErrTooManyTargets) Error() string {
	return "orienteer: candidate set too large for exact DP"
}

// Solve runs the Held-Karp subset DP and returns the prize-maximizing,
// budget-feasible visit order. Ties are broken first by shorter length,
// then by lexicographically smaller visit order (comparing target
// indices in visitation sequence). A drone that cannot even travel
// start->end within budget gets an empty, zero-prize result — this is
// the budget-infeasible-for-a-drone case, not an error.
func Solve(in Input) (Result, error) {
	n := len(in.Targets)
	if n > MaxTargets {
		return Result{}, ErrTooManyTargets{N: n}
	}
	if n == 0 {
		if in.StartToEnd <= in.Budget+m.EpsBudget {
			return Result{Length: in.StartToEnd}, nil
		}
		return Result{}, nil
	}

	totalMasks := 1 << uint(n)
	// dp[mask*n+j]: minimal length of a path start -> (targets in mask,
	// ending at j) -> nothing yet (end leg added at close time).
	dp := make([]float64, totalMasks*n)
	parent := make([]int, totalMasks*n)
	for i := range dp {
		dp[i] = math.Inf(1)
		parent[i] = -1
	}

	for j := 0; j < n; j++ {
		dp[(1<<uint(j))*n+j] = in.StartToTarget[j]
	}

	masksBySize := make([][]int, n+1)
	for mask := 1; mask < totalMasks; mask++ {
		masksBySize[bits.OnesCount(uint(mask))] = append(masksBySize[bits.OnesCount(uint(mask))], mask)
	}

	for size := 2; size <= n; size++ {
		for _, mask := range masksBySize[size] {
			for j := 0; j < n; j++ {
				jbit := 1 << uint(j)
				if mask&jbit == 0 {
					continue
				}
				prevMask := mask ^ jbit
				best := math.Inf(1)
				argk := -1
				for k := 0; k < n; k++ {
					kbit := 1 << uint(k)
					if prevMask&kbit == 0 {
						continue
					}
					base := dp[prevMask*n+k]
					if math.IsInf(base, 1) {
						continue
					}
					cand := base + in.TargetToTarget[k][j]
					if cand < best {
						best, argk = cand, k
					}
				}
				if argk >= 0 {
					dp[mask*n+j] = best
					parent[mask*n+j] = argk
				}
			}
		}
	}

	prizeOf := make([]int, totalMasks)
	for mask := 1; mask < totalMasks; mask++ {
		lsb := mask & (-mask)
		idx := bits.TrailingZeros(uint(lsb))
		prizeOf[mask] = prizeOf[mask^lsb] + in.Targets[idx].Priority
	}

	bestMask, bestEnd := -1, -1
	var bestPrize int
	var bestLength = math.Inf(1)

	consider := func(mask, j int, length float64) {
		prize := prizeOf[mask]
		better := bestMask < 0 ||
			prize > bestPrize ||
			(prize == bestPrize && length < bestLength-m.EpsBudget) ||
			(prize == bestPrize && length <= bestLength+m.EpsBudget &&
				lexLess(reconstruct(parent, mask, j, n), reconstruct(parent, bestMask, bestEnd, n)))
		if !better {
			return
		}
		bestMask, bestEnd, bestPrize, bestLength = mask, j, prize, length
	}

	// mask == 0: visit nothing, straight start->end.
	if in.StartToEnd <= in.Budget+m.EpsBudget {
		bestMask, bestEnd, bestPrize, bestLength = 0, -1, 0, in.StartToEnd
	}

	for mask := 1; mask < totalMasks; mask++ {
		for j := 0; j < n; j++ {
			if mask&(1<<uint(j)) == 0 {
				continue
			}
			base := dp[mask*n+j]
			if math.IsInf(base, 1) {
				continue
			}
			length := base + in.TargetToEnd[j]
			if length > in.Budget+m.EpsBudget {
				continue
			}
			consider(mask, j, length)
		}
	}

	if bestMask < 0 {
		return Result{}, nil
	}
	if bestMask == 0 {
		return Result{Length: bestLength}, nil
	}
	return Result{
		VisitOrder: reconstruct(parent, bestMask, bestEnd, n),
		Prize:      bestPrize,
		Length:     bestLength,
	}, nil
}

func reconstruct(parent []int, mask, end, n int) []int {
	if end < 0 {
		return nil
	}
	order := make([]int, bits.OnesCount(uint(mask)))
	cur, remaining := end, mask
	for i := len(order) - 1; i >= 0; i-- {
		order[i] = cur
		p := parent[remaining*n+cur]
		remaining ^= 1 << uint(cur)
		cur = p
	}
	return order
}

func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
