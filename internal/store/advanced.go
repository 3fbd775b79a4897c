package store

import (
	"fmt"
	"sort"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
)

// Advanced query modes.
const (
	QueryTraversal    = "traversal"
	QueryShortestPath = "shortest_path"
)

// Result composition modes. Composition only controls which fields of the
// result are populated, never the computation itself.
const (
	ComposeNodesOnly     = "nodes_only"
	ComposeNodesAndEdges = "nodes_and_edges"
	ComposePaths         = "paths"
)

// AdvancedQuery is the input for QueryAdvanced.
type AdvancedQuery struct {
	QueryType       string      `json:"query_type"`
	StartIDs        []string    `json:"start_ids,omitempty"`
	TargetID        string      `json:"target_id,omitempty"`
	MaxDepth        int         `json:"max_depth,omitempty"`
	Direction       string      `json:"direction,omitempty"`
	EdgeTypes       []string    `json:"edge_types,omitempty"`
	NodeConditions  []Condition `json:"node_conditions,omitempty"`
	EdgeConditions  []Condition `json:"edge_conditions,omitempty"`
	WeightAttribute string      `json:"weight_attribute,omitempty"`
	Composition     string      `json:"composition,omitempty"`
}

// AdvancedResult is the tagged result variant: Mode names the composition
// and only the fields belonging to that mode are populated. An empty result
// (no nodes, no paths) is a successful "nothing found", never an error.
type AdvancedResult struct {
	Mode  string       `json:"mode"`
	Nodes []NodeView   `json:"nodes,omitempty"`
	Edges []EdgeView   `json:"edges,omitempty"`
	Paths []PathResult `json:"paths,omitempty"`
}

// QueryAdvanced dispatches a traversal or shortest_path query. Structurally
// malformed queries (unknown query_type, unknown operator, missing required
// ids) fail fast; missing start nodes and unreachable targets are empty
// successful results.
func (s *GraphStore) QueryAdvanced(q AdvancedQuery) (*AdvancedResult, error) {
	composition := q.Composition
	if composition == "" {
		composition = ComposeNodesAndEdges
	}
	switch composition {
	case ComposeNodesOnly, ComposeNodesAndEdges, ComposePaths:
	default:
		return nil, fmt.Errorf("unknown composition %q", composition)
	}

	nodeConds, err := compileConditions(q.NodeConditions)
	if err != nil {
		return nil, fmt.Errorf("node conditions: %w", err)
	}
	edgeConds, err := compileConditions(q.EdgeConditions)
	if err != nil {
		return nil, fmt.Errorf("edge conditions: %w", err)
	}

	switch q.QueryType {
	case QueryTraversal:
		if len(q.StartIDs) == 0 {
			return nil, fmt.Errorf("traversal query requires start_ids")
		}
		if q.MaxDepth < 0 {
			return nil, fmt.Errorf("max_depth must be non-negative")
		}
		dir, err := graph.ParseDirection(q.Direction)
		if err != nil {
			return nil, err
		}
		return s.traverse(q.StartIDs, q.MaxDepth, dir, q.EdgeTypes, nodeConds, edgeConds, composition), nil

	case QueryShortestPath:
		if len(q.StartIDs) == 0 || q.TargetID == "" {
			return nil, fmt.Errorf("shortest_path query requires start_ids and target_id")
		}
		path := s.ShortestPath(q.StartIDs[0], q.TargetID, AttributeWeight(q.WeightAttribute), q.EdgeTypes)
		return s.composePath(path, composition), nil

	default:
		return nil, fmt.Errorf("unknown query_type %q (use traversal or shortest_path)", q.QueryType)
	}
}

// traverse runs a multi-source breadth-first expansion. Conditions gate
// inclusion in the result only; traversal continues through excluded
// elements.
func (s *GraphStore) traverse(startIDs []string, maxDepth int, dir graph.Direction, edgeTypes []string, nodeConds, edgeConds []Condition, composition string) *AdvancedResult {
	typeOK := edgeTypeFilter(edgeTypes)
	discovered := make(map[string]struct{})
	parent := make(map[string]parentLink)
	var frontier []string
	for _, id := range startIDs {
		if !s.g.HasNode(id) {
			continue
		}
		if _, seen := discovered[id]; seen {
			continue
		}
		discovered[id] = struct{}{}
		frontier = append(frontier, id)
	}

	includedNodes := make(map[string]struct{})
	includedEdges := make(map[string]*graph.Edge)
	admitNode := func(id string) {
		attrs, _ := s.g.NodeAttrs(id)
		if evalConditions(attrs, nodeConds) {
			includedNodes[id] = struct{}{}
		}
	}
	for _, id := range frontier {
		admitNode(id)
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, nodeID := range frontier {
			s.g.EachIncident(nodeID, dir, func(e *graph.Edge) {
				if !typeOK(e) {
					return
				}
				neighbor := traversalTarget(e, nodeID, dir)
				if neighbor == "" {
					return
				}
				if evalConditions(e.Attrs, edgeConds) {
					includedEdges[e.ID] = e
				}
				if _, seen := discovered[neighbor]; seen {
					return
				}
				discovered[neighbor] = struct{}{}
				parent[neighbor] = parentLink{node: nodeID, edge: e.ID}
				next = append(next, neighbor)
				admitNode(neighbor)
			})
		}
		frontier = next
	}

	res := &AdvancedResult{Mode: composition}
	res.Nodes = make([]NodeView, 0, len(includedNodes))
	for id := range includedNodes {
		attrs, _ := s.g.NodeAttrs(id)
		res.Nodes = append(res.Nodes, NodeView{ID: id, Attributes: attrs.Clone()})
	}
	sort.Slice(res.Nodes, func(i, j int) bool { return res.Nodes[i].ID < res.Nodes[j].ID })

	switch composition {
	case ComposeNodesAndEdges:
		res.Edges = make([]EdgeView, 0, len(includedEdges))
		for _, e := range includedEdges {
			res.Edges = append(res.Edges, edgeView(e))
		}
		sort.Slice(res.Edges, func(i, j int) bool { return res.Edges[i].ID < res.Edges[j].ID })
	case ComposePaths:
		res.Paths = traversalPaths(includedNodes, parent)
	}
	return res
}

// traversalPaths reconstructs, for each included node, its discovery path
// back to the start node that reached it. Cost is the hop count.
func traversalPaths(included map[string]struct{}, parent map[string]parentLink) []PathResult {
	paths := make([]PathResult, 0, len(included))
	for id := range included {
		var nodes, edges []string
		for at := id; ; {
			nodes = append(nodes, at)
			link, ok := parent[at]
			if !ok {
				break
			}
			edges = append(edges, link.edge)
			at = link.node
		}
		reverseStrings(nodes)
		reverseStrings(edges)
		paths = append(paths, PathResult{NodeIDs: nodes, EdgeIDs: edges, Cost: float64(len(edges))})
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].NodeIDs[len(paths[i].NodeIDs)-1] < paths[j].NodeIDs[len(paths[j].NodeIDs)-1]
	})
	return paths
}

// composePath projects a shortest-path result through the composition mode.
func (s *GraphStore) composePath(path *PathResult, composition string) *AdvancedResult {
	res := &AdvancedResult{Mode: composition}
	if path == nil {
		return res
	}
	switch composition {
	case ComposePaths:
		res.Paths = []PathResult{*path}
	case ComposeNodesOnly, ComposeNodesAndEdges:
		res.Nodes = make([]NodeView, 0, len(path.NodeIDs))
		for _, id := range path.NodeIDs {
			attrs, _ := s.g.NodeAttrs(id)
			res.Nodes = append(res.Nodes, NodeView{ID: id, Attributes: attrs.Clone()})
		}
		if composition == ComposeNodesAndEdges {
			res.Edges = make([]EdgeView, 0, len(path.EdgeIDs))
			for _, id := range path.EdgeIDs {
				if e, ok := s.g.Edge(id); ok {
					res.Edges = append(res.Edges, edgeView(e))
				}
			}
			res.Paths = []PathResult{*path}
		}
	}
	return res
}
