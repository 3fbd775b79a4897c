package store

import (
	"container/heap"
	"math"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
)

// DefaultWeightAttribute is the edge attribute consulted for path weights
// when the caller does not name one.
const DefaultWeightAttribute = "weight"

// WeightFunc extracts a traversal cost from an edge.
type WeightFunc func(e *graph.Edge) float64

// AttributeWeight returns a WeightFunc reading the named edge attribute.
// A missing, non-numeric, or non-positive value costs 1.
func AttributeWeight(attr string) WeightFunc {
	if attr == "" {
		attr = DefaultWeightAttribute
	}
	return func(e *graph.Edge) float64 {
		if f, ok := attrFloat(e.Attrs, attr); ok && f > 0 {
			return f
		}
		return 1
	}
}

func attrFloat(attrs graph.Attrs, key string) (float64, bool) {
	switch t := attrs[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}

// PathResult is one weighted path through the graph.
type PathResult struct {
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids,omitempty"`
	Cost    float64  `json:"cost"`
}

type parentLink struct {
	node string
	edge string
}

type searchState struct {
	dist    map[string]float64
	parent  map[string]parentLink
	settled map[string]bool
	pq      *priorityQueue
}

func newSearchState(start string) *searchState {
	st := &searchState{
		dist:    map[string]float64{start: 0},
		parent:  map[string]parentLink{},
		settled: map[string]bool{},
		pq:      &priorityQueue{},
	}
	heap.Init(st.pq)
	heap.Push(st.pq, &pqItem{node: start, dist: 0})
	return st
}

// ShortestPath runs a bidirectional Dijkstra search from source to target.
// Directed edges are followed source-to-target; undirected edges both ways.
// edgeTypes, when non-empty, restricts which edges may be traversed. A nil
// result means unreachable (or an unknown endpoint) and is not an error.
func (s *GraphStore) ShortestPath(sourceID, targetID string, weight WeightFunc, edgeTypes []string) *PathResult {
	if !s.g.HasNode(sourceID) || !s.g.HasNode(targetID) {
		return nil
	}
	if weight == nil {
		weight = AttributeWeight("")
	}
	if sourceID == targetID {
		return &PathResult{NodeIDs: []string{sourceID}, EdgeIDs: []string{}, Cost: 0}
	}

	typeOK := edgeTypeFilter(edgeTypes)
	fwd := newSearchState(sourceID)
	bwd := newSearchState(targetID)

	best := math.Inf(1)
	var meeting string

	// Alternate expanding the smaller frontier; stop when the two frontiers
	// can no longer improve on the best meeting point.
	for fwd.pq.Len() > 0 || bwd.pq.Len() > 0 {
		if minDist(fwd)+minDist(bwd) >= best {
			break
		}
		forward := bwd.pq.Len() == 0 || (fwd.pq.Len() > 0 && fwd.pq.Len() <= bwd.pq.Len())
		st, other := fwd, bwd
		dir := graph.Out
		if !forward {
			st, other = bwd, fwd
			dir = graph.In
		}
		item := heap.Pop(st.pq).(*pqItem)
		if st.settled[item.node] {
			continue
		}
		st.settled[item.node] = true

		s.g.EachIncident(item.node, dir, func(e *graph.Edge) {
			if !typeOK(e) {
				return
			}
			neighbor := traversalTarget(e, item.node, dir)
			if neighbor == "" {
				return
			}
			alt := st.dist[item.node] + weight(e)
			if d, seen := st.dist[neighbor]; !seen || alt < d {
				st.dist[neighbor] = alt
				st.parent[neighbor] = parentLink{node: item.node, edge: e.ID}
				heap.Push(st.pq, &pqItem{node: neighbor, dist: alt})
			}
			if od, seen := other.dist[neighbor]; seen {
				if total := st.dist[neighbor] + od; total < best {
					best = total
					meeting = neighbor
				}
			}
		})
	}

	if math.IsInf(best, 1) {
		return nil
	}
	return assemblePath(fwd, bwd, meeting, best)
}

// traversalTarget returns the node reached by crossing e from nodeID in the
// given search direction, or "" when the edge cannot be crossed that way.
// A directed self-loop never advances the search.
func traversalTarget(e *graph.Edge, nodeID string, dir graph.Direction) string {
	if e.Undirected {
		return e.OtherEnd(nodeID)
	}
	switch dir {
	case graph.Out:
		if e.Source == nodeID {
			return e.Target
		}
	case graph.In:
		if e.Target == nodeID {
			return e.Source
		}
	case graph.Both:
		return e.OtherEnd(nodeID)
	}
	return ""
}

func edgeTypeFilter(edgeTypes []string) func(e *graph.Edge) bool {
	if len(edgeTypes) == 0 {
		return func(*graph.Edge) bool { return true }
	}
	allowed := make(map[string]struct{}, len(edgeTypes))
	for _, t := range edgeTypes {
		allowed[t] = struct{}{}
	}
	return func(e *graph.Edge) bool {
		_, ok := allowed[e.Type()]
		return ok
	}
}

func minDist(st *searchState) float64 {
	if st.pq.Len() == 0 {
		return math.Inf(1)
	}
	return (*st.pq)[0].dist
}

func assemblePath(fwd, bwd *searchState, meeting string, cost float64) *PathResult {
	// Forward half: meeting back to source, then reversed.
	var nodes []string
	var edges []string
	for at := meeting; ; {
		nodes = append(nodes, at)
		link, ok := fwd.parent[at]
		if !ok {
			break
		}
		edges = append(edges, link.edge)
		at = link.node
	}
	reverseStrings(nodes)
	reverseStrings(edges)

	// Backward half: meeting forward to target.
	for at := meeting; ; {
		link, ok := bwd.parent[at]
		if !ok {
			break
		}
		nodes = append(nodes, link.node)
		edges = append(edges, link.edge)
		at = link.node
	}
	return &PathResult{NodeIDs: nodes, EdgeIDs: edges, Cost: cost}
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// pqItem / priorityQueue implement container/heap for Dijkstra.
type pqItem struct {
	node string
	dist float64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)         { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
