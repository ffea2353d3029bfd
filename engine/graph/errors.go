package graph

import "errors"

// ErrCycle is returned by TopologicalSort when the graph contains at least
// one cycle and therefore admits no linear ordering.
var ErrCycle = errors.New("graph: cycle present, no topological order")
