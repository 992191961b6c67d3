// oracle/multigraph.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package oracle

import (
	"container/heap"
	gomath "math"

	m "github.com/isrplan/planner/math"
)

type graphEdge struct {
	to     int
	weight float64
}

// visibilityGraph is a flat-array graph: nodes indexed by integer, edges
// as (index,index,weight). Node 0 is always start, node 1 is always
// goal, per the caller's construction order.
type visibilityGraph struct {
	nodes []m.Point2D
	adj   [][]graphEdge
}

// buildVisibilityGraph builds the graph over {start, goal, every polygon
// vertex}, with an edge between any two nodes with clear line of sight,
// plus every polygon boundary edge unconditionally (boundary traversal
// is always permitted even if another polygon would otherwise block
// the segment).
func buildVisibilityGraph(start, goal m.Point2D, polygons [][]m.Point2D) *visibilityGraph {
	g := &visibilityGraph{}
	seen := map[[2]int64]int{}

	add := func(p m.Point2D) int {
		key := roundKey(p)
		if idx, ok := seen[key]; ok {
			return idx
		}
		idx := len(g.nodes)
		seen[key] = idx
		g.nodes = append(g.nodes, p)
		g.adj = append(g.adj, nil)
		return idx
	}

	add(start)
	add(goal)
	for _, poly := range polygons {
		for _, v := range poly {
			add(v)
		}
	}

	n := len(g.nodes)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if segmentClearOfAllPolygons(g.nodes[i], g.nodes[j], polygons) {
				g.connect(i, j)
			}
		}
	}

	for _, poly := range polygons {
		np := len(poly)
		for i := 0; i < np; i++ {
			a := add(poly[i])
			b := add(poly[(i+1)%np])
			g.connect(a, b)
		}
	}

	return g
}

func (g *visibilityGraph) connect(i, j int) {
	if i == j {
		return
	}
	w := m.Distance(g.nodes[i], g.nodes[j])
	if !hasEdge(g.adj[i], j) {
		g.adj[i] = append(g.adj[i], graphEdge{to: j, weight: w})
	}
	if !hasEdge(g.adj[j], i) {
		g.adj[j] = append(g.adj[j], graphEdge{to: i, weight: w})
	}
}

func hasEdge(edges []graphEdge, to int) bool {
	for _, e := range edges {
		if e.to == to {
			return true
		}
	}
	return false
}

func roundKey(p m.Point2D) [2]int64 {
	const scale = 1e6
	return [2]int64{int64(gomath.Round(p[0] * scale)), int64(gomath.Round(p[1] * scale))}
}

///////////////////////////////////////////////////////////////////////////
// Dijkstra

type pqItem struct {
	node int
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstra returns the shortest path from node 0 to node 1 in g, as a
// point sequence, or nil with +Inf if unreachable.
func dijkstra(g *visibilityGraph) ([]m.Point2D, float64) {
	const from, to = 0, 1
	n := len(g.nodes)
	dist := make([]float64, n)
	prev := make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = gomath.Inf(1)
		prev[i] = -1
	}
	dist[from] = 0

	pq := &priorityQueue{{node: from, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == to {
			break
		}
		for _, e := range g.adj[cur.node] {
			if visited[e.to] {
				continue
			}
			nd := dist[cur.node] + e.weight
			if nd < dist[e.to] {
				dist[e.to] = nd
				prev[e.to] = cur.node
				heap.Push(pq, pqItem{node: e.to, dist: nd})
			}
		}
	}

	if gomath.IsInf(dist[to], 1) {
		return nil, gomath.Inf(1)
	}

	var rev []int
	for v := to; v != -1; v = prev[v] {
		rev = append(rev, v)
	}
	path := make([]m.Point2D, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = g.nodes[v]
	}
	return path, dist[to]
}

// navigateMultiPolygon finds a shortest path among several polygons via
// a visibility graph over start, goal, and all polygon vertices.
func navigateMultiPolygon(start, goal m.Point2D, polygons [][]m.Point2D) ([]m.Point2D, float64, string) {
	g := buildVisibilityGraph(start, goal, polygons)
	path, length := dijkstra(g)
	if len(path) == 0 {
		return nil, gomath.Inf(1), MethodInvalidNoPath
	}
	return path, length, MethodVisibilityGraph
}
