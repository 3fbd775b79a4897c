// Package graph implements the in-memory property graph core: node and edge
// identity, attribute bags, adjacency iteration, and the JSON snapshot codec.
//
// The graph is a mixed multigraph: edges are directed unless explicitly
// flagged undirected, parallel edges and self-loops are permitted. The graph
// has no internal locking; callers own it exclusively.
package graph

import "fmt"

// Direction selects which incident edges of a node an iteration visits.
type Direction string

const (
	Out  Direction = "outbound"
	In   Direction = "inbound"
	Both Direction = "both"
)

// ParseDirection normalizes a caller-supplied direction string. The empty
// string means Both.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "both":
		return Both, nil
	case "out", "outbound":
		return Out, nil
	case "in", "inbound":
		return In, nil
	}
	return "", fmt.Errorf("invalid direction %q (use outbound, inbound, or both)", s)
}

// Edge is a typed connection between two nodes. The edge type lives in
// Attrs under the "type" key so the snapshot round-trips it verbatim.
type Edge struct {
	ID         string
	Source     string
	Target     string
	Undirected bool
	Attrs      Attrs
}

// Type returns the edge's type tag.
func (e *Edge) Type() string {
	return e.Attrs.String("type")
}

// OtherEnd returns the endpoint opposite to nodeID. For a self-loop it
// returns nodeID itself.
func (e *Edge) OtherEnd(nodeID string) string {
	if e.Source == nodeID {
		return e.Target
	}
	return e.Source
}

// Graph is the node/edge identity table with per-node incidence indexes.
type Graph struct {
	nodes    map[string]Attrs
	edges    map[string]*Edge
	incident map[string]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]Attrs),
		edges:    make(map[string]*Edge),
		incident: make(map[string]map[string]struct{}),
	}
}

// Order returns the node count.
func (g *Graph) Order() int { return len(g.nodes) }

// Size returns the edge count.
func (g *Graph) Size() int { return len(g.edges) }

// HasNode reports whether id is a known node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeAttrs returns the attribute map of a node.
func (g *Graph) NodeAttrs(id string) (Attrs, bool) {
	a, ok := g.nodes[id]
	return a, ok
}

// AddNode creates a node. It fails with ErrDuplicateNode if the id is taken;
// callers that want merge-on-conflict use MergeNode instead.
func (g *Graph) AddNode(id string, attrs Attrs) error {
	if g.HasNode(id) {
		return fmt.Errorf("node %q: %w", id, ErrDuplicateNode)
	}
	g.nodes[id] = attrs.Clone()
	g.incident[id] = make(map[string]struct{})
	return nil
}

// MergeNode creates the node if absent, otherwise shallow-merges attrs into
// the existing node. It reports whether the node was newly created.
func (g *Graph) MergeNode(id string, attrs Attrs) bool {
	if existing, ok := g.nodes[id]; ok {
		existing.Merge(attrs)
		return false
	}
	g.nodes[id] = attrs.Clone()
	g.incident[id] = make(map[string]struct{})
	return true
}

// DropNode removes a node and every incident edge, in both directions.
func (g *Graph) DropNode(id string) error {
	if !g.HasNode(id) {
		return fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	for edgeID := range g.incident[id] {
		e := g.edges[edgeID]
		delete(g.incident[e.Source], edgeID)
		delete(g.incident[e.Target], edgeID)
		delete(g.edges, edgeID)
	}
	delete(g.incident, id)
	delete(g.nodes, id)
	return nil
}

// HasEdge reports whether id is a known edge.
func (g *Graph) HasEdge(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// AddEdge creates an edge between two existing nodes. Parallel edges with
// distinct ids and self-loops are allowed.
func (g *Graph) AddEdge(id, source, target string, undirected bool, attrs Attrs) error {
	if g.HasEdge(id) {
		return fmt.Errorf("edge %q: %w", id, ErrDuplicateEdge)
	}
	if !g.HasNode(source) {
		return fmt.Errorf("edge %q source %q: %w", id, source, ErrUnknownEndpoint)
	}
	if !g.HasNode(target) {
		return fmt.Errorf("edge %q target %q: %w", id, target, ErrUnknownEndpoint)
	}
	e := &Edge{ID: id, Source: source, Target: target, Undirected: undirected, Attrs: attrs.Clone()}
	g.edges[id] = e
	g.incident[source][id] = struct{}{}
	g.incident[target][id] = struct{}{}
	return nil
}

// DropEdge removes a single edge by id.
func (g *Graph) DropEdge(id string) error {
	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("edge %q: %w", id, ErrEdgeNotFound)
	}
	delete(g.incident[e.Source], id)
	delete(g.incident[e.Target], id)
	delete(g.edges, id)
	return nil
}

// EachNode calls fn for every node. Iteration order is unspecified.
func (g *Graph) EachNode(fn func(id string, attrs Attrs)) {
	for id, attrs := range g.nodes {
		fn(id, attrs)
	}
}

// EachEdge calls fn for every edge. Iteration order is unspecified.
func (g *Graph) EachEdge(fn func(e *Edge)) {
	for _, e := range g.edges {
		fn(e)
	}
}

// EachIncident calls fn once for every incident edge of nodeID matching the
// direction. Undirected edges match every direction; a self-loop is visited
// exactly once per call even though it occupies both endpoints.
func (g *Graph) EachIncident(nodeID string, dir Direction, fn func(e *Edge)) {
	for edgeID := range g.incident[nodeID] {
		e := g.edges[edgeID]
		if edgeMatchesDirection(e, nodeID, dir) {
			fn(e)
		}
	}
}

func edgeMatchesDirection(e *Edge, nodeID string, dir Direction) bool {
	if e.Undirected || dir == Both {
		return true
	}
	switch dir {
	case Out:
		return e.Source == nodeID
	case In:
		return e.Target == nodeID
	}
	return false
}
