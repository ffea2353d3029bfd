// Package graph implements the dependency-graph analyzer: cycle detection,
// reachability/orphan analysis, and topological sort over an interned
// adjacency list.
//
// # Ownership Model
//
// An Analyzer exclusively owns its interning tables and adjacency list;
// it is not a shared, reference-counted structure. Callers that need
// concurrent analyzers construct one each.
//
// # Thread Safety
//
// Analyzer is NOT safe for concurrent use. Graph construction and
// analysis are cheap, single-threaded operations whose correctness
// depends on stable insertion order; serializing access is the caller's
// responsibility.
package graph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("buildcore.graph")
	meter  = otel.Meter("buildcore.graph")
)

// Analyzer is a high-performance graph analyzer using an integer-based
// adjacency list. String identifiers are interned into dense indices for
// O(1) lookup and cache-friendly traversal.
type Analyzer struct {
	nodeToID map[string]int
	idToNode []string
	adjList  [][]int

	nodeGauge metric.Int64Counter
	edgeGauge metric.Int64Counter
}

// New creates an empty Analyzer.
func New() *Analyzer {
	a := &Analyzer{
		nodeToID: make(map[string]int),
	}
	a.nodeGauge, _ = meter.Int64Counter("graph_nodes_total",
		metric.WithDescription("Cumulative node IDs passed to AddNode/AddBatch on this analyzer"))
	a.edgeGauge, _ = meter.Int64Counter("graph_edges_added_total",
		metric.WithDescription("Cumulative edges recorded by this analyzer"))
	return a
}

// getOrCreateID returns the dense index for id, interning it if unseen.
func (a *Analyzer) getOrCreateID(id string) int {
	if uid, ok := a.nodeToID[id]; ok {
		return uid
	}
	uid := len(a.idToNode)
	a.nodeToID[id] = uid
	a.idToNode = append(a.idToNode, id)
	a.adjList = append(a.adjList, nil)
	return uid
}

// getID returns the index for id if it has been interned.
func (a *Analyzer) getID(id string) (int, bool) {
	uid, ok := a.nodeToID[id]
	return uid, ok
}

// AddNode interns id and each element of deps, then sets the adjacency
// list at id's index to the interned deps, overwriting any prior edges.
func (a *Analyzer) AddNode(ctx context.Context, id string, deps []string) {
	_, span := tracer.Start(ctx, "graph.AddNode", trace.WithAttributes(
		attribute.String("graph.node", id),
		attribute.Int("graph.dep_count", len(deps)),
	))
	defer span.End()

	uid := a.getOrCreateID(id)
	depIDs := make([]int, len(deps))
	for i, dep := range deps {
		depIDs[i] = a.getOrCreateID(dep)
	}
	a.adjList[uid] = depIDs

	if a.nodeGauge != nil {
		a.nodeGauge.Add(ctx, 1)
	}
	if a.edgeGauge != nil {
		a.edgeGauge.Add(ctx, int64(len(deps)))
	}
}

// AddBatch bulk-adds nodes. edges[i] are the dependencies for ids[i].
// Capacity is reserved up front to minimize reallocation.
func (a *Analyzer) AddBatch(ctx context.Context, ids []string, edges [][]string) {
	ctx, span := tracer.Start(ctx, "graph.AddBatch", trace.WithAttributes(
		attribute.Int("graph.batch_size", len(ids)),
	))
	defer span.End()

	// Reserve capacity up front to minimize reallocation during interning.
	if cap(a.idToNode)-len(a.idToNode) < len(ids) {
		grown := make([]string, len(a.idToNode), len(a.idToNode)+len(ids))
		copy(grown, a.idToNode)
		a.idToNode = grown
	}

	var edgesAdded int
	for i, id := range ids {
		uid := a.getOrCreateID(id)
		if i < len(edges) {
			deps := edges[i]
			depIDs := make([]int, len(deps))
			for j, dep := range deps {
				depIDs[j] = a.getOrCreateID(dep)
			}
			a.adjList[uid] = depIDs
			edgesAdded += len(deps)
		}
	}

	if a.nodeGauge != nil {
		a.nodeGauge.Add(ctx, int64(len(ids)))
	}
	if a.edgeGauge != nil {
		a.edgeGauge.Add(ctx, int64(edgesAdded))
	}
}

// Cycle is a non-empty ordered sequence of node identifiers forming a
// directed cycle, paired with the identifier at which the cycle closes.
type Cycle struct {
	Nodes      []string
	EntryPoint string
}

// dfsFrame is one entry on the explicit DFS stack: node u, and the index
// of the next child of u to visit.
type dfsFrame struct {
	node     int
	childIdx int
}

// DetectCycles runs an iterative (explicit-stack) depth-first search over
// the adjacency list and returns every cycle found. Recursion is
// deliberately avoided: module graphs may be arbitrarily deep and the
// host call stack is not a reliable bound.
func (a *Analyzer) DetectCycles(ctx context.Context) []Cycle {
	_, span := tracer.Start(ctx, "graph.DetectCycles")
	defer span.End()

	n := len(a.idToNode)
	visited := make([]bool, n)
	onStack := make([]bool, n)
	path := make([]int, 0, n)
	var cycles []Cycle

	var stack []dfsFrame

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}

		stack = append(stack, dfsFrame{node: i, childIdx: 0})
		visited[i] = true
		onStack[i] = true
		path = append(path, i)

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			u := top.node

			if top.childIdx < len(a.adjList[u]) {
				v := a.adjList[u][top.childIdx]
				top.childIdx++

				if !visited[v] {
					visited[v] = true
					onStack[v] = true
					path = append(path, v)
					stack = append(stack, dfsFrame{node: v, childIdx: 0})
				} else if onStack[v] {
					cycles = append(cycles, a.buildCycle(path, v))
				}
			} else {
				onStack[u] = false
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
			}
		}
	}

	span.SetAttributes(attribute.Int("graph.cycles_found", len(cycles)))
	if len(cycles) > 0 {
		span.SetStatus(codes.Error, "cycles detected")
	}
	return cycles
}

// buildCycle extracts the cycle starting at the first occurrence of v in
// path, translating interned indices back to their original identifiers.
func (a *Analyzer) buildCycle(path []int, v int) Cycle {
	start := 0
	for i, n := range path {
		if n == v {
			start = i
			break
		}
	}
	nodes := make([]string, len(path)-start)
	for i, idx := range path[start:] {
		nodes[i] = a.idToNode[idx]
	}
	return Cycle{Nodes: nodes, EntryPoint: a.idToNode[v]}
}

// FindOrphanedNodes returns, in interning order, every node unreachable
// from entryPoints via a breadth-first search. Entry points absent from
// the graph are silently ignored.
func (a *Analyzer) FindOrphanedNodes(ctx context.Context, entryPoints []string) []string {
	_, span := tracer.Start(ctx, "graph.FindOrphanedNodes")
	defer span.End()

	n := len(a.idToNode)
	reachable := make([]bool, n)
	queue := make([]int, 0, n)

	for _, e := range entryPoints {
		if id, ok := a.getID(e); ok && !reachable[id] {
			reachable[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range a.adjList[u] {
			if !reachable[v] {
				reachable[v] = true
				queue = append(queue, v)
			}
		}
	}

	var orphaned []string
	for i := 0; i < n; i++ {
		if !reachable[i] {
			orphaned = append(orphaned, a.idToNode[i])
		}
	}

	span.SetAttributes(attribute.Int("graph.orphans_found", len(orphaned)))
	return orphaned
}

// AnalysisResult is the combined output of a full graph analysis.
type AnalysisResult struct {
	HasCycles     bool
	Cycles        []Cycle
	OrphanedNodes []string
	EntryPoints   []string
	TotalNodes    int
	TotalEdges    int
}

// Analyze runs DetectCycles and FindOrphanedNodes and returns the
// combined result.
func (a *Analyzer) Analyze(ctx context.Context, entryPoints []string) AnalysisResult {
	ctx, span := tracer.Start(ctx, "graph.Analyze")
	defer span.End()

	cycles := a.DetectCycles(ctx)
	orphaned := a.FindOrphanedNodes(ctx, entryPoints)

	return AnalysisResult{
		HasCycles:     len(cycles) > 0,
		Cycles:        cycles,
		OrphanedNodes: orphaned,
		EntryPoints:   entryPoints,
		TotalNodes:    a.NodeCount(),
		TotalEdges:    a.EdgeCount(),
	}
}

// TopologicalSort returns a linear ordering of all nodes such that every
// edge u→v places u before v, computed via Kahn's algorithm. If the graph
// contains a cycle, ErrCycle is returned and the order slice is nil.
func (a *Analyzer) TopologicalSort(ctx context.Context) ([]string, error) {
	_, span := tracer.Start(ctx, "graph.TopologicalSort")
	defer span.End()

	n := len(a.idToNode)
	inDegree := make([]int, n)
	for _, deps := range a.adjList {
		for _, v := range deps {
			inDegree[v]++
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	result := make([]int, 0, n)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		result = append(result, u)

		for _, v := range a.adjList[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	if len(result) != n {
		span.SetStatus(codes.Error, ErrCycle.Error())
		return nil, ErrCycle
	}

	order := make([]string, n)
	for i, idx := range result {
		order[i] = a.idToNode[idx]
	}
	return order, nil
}

// Clear removes all nodes and edges from the analyzer.
func (a *Analyzer) Clear() {
	a.nodeToID = make(map[string]int)
	a.idToNode = nil
	a.adjList = nil
}

// NodeCount returns the number of interned nodes.
func (a *Analyzer) NodeCount() int {
	return len(a.idToNode)
}

// EdgeCount returns the total number of edges across all nodes.
func (a *Analyzer) EdgeCount() int {
	total := 0
	for _, deps := range a.adjList {
		total += len(deps)
	}
	return total
}
