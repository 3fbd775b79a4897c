package store

import (
	"sort"
	"strings"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
)

// NodeView is the read-side shape of a node.
type NodeView struct {
	ID         string      `json:"id"`
	Attributes graph.Attrs `json:"attributes"`
}

// EdgeView is the read-side shape of an edge.
type EdgeView struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Undirected bool        `json:"undirected,omitempty"`
	Attributes graph.Attrs `json:"attributes"`
}

// GraphView is a node set plus the edges induced on it.
type GraphView struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// GraphFilter restricts ReadGraph output. All present clauses must match
// (logical AND); a nil filter matches everything.
type GraphFilter struct {
	NodeIDs    []string    `json:"node_ids,omitempty"`
	Types      []string    `json:"types,omitempty"`
	Attributes graph.Attrs `json:"attributes,omitempty"`
}

func (f *GraphFilter) matches(id string, attrs graph.Attrs) bool {
	if f == nil {
		return true
	}
	if len(f.NodeIDs) > 0 {
		found := false
		for _, want := range f.NodeIDs {
			if want == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Types) > 0 {
		nodeType := attrs.String("type")
		found := false
		for _, want := range f.Types {
			if want == nodeType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for key, want := range f.Attributes {
		got, ok := attrs[key]
		if !ok || !graph.ValueEqual(got, want) {
			return false
		}
	}
	return true
}

// ReadGraph returns the nodes passing the filter plus exactly the edges
// whose both endpoints survive it.
func (s *GraphStore) ReadGraph(filter *GraphFilter) *GraphView {
	keep := make(map[string]struct{})
	s.g.EachNode(func(id string, attrs graph.Attrs) {
		if filter.matches(id, attrs) {
			keep[id] = struct{}{}
		}
	})
	return s.viewOf(keep)
}

// SearchNodes matches the query case-insensitively as a substring of a
// node's id, its attribute keys, and every stringifiable attribute value
// (name, type, content and tags included). The result carries the matched
// nodes with edges induced on the matched set, mirroring ReadGraph.
func (s *GraphStore) SearchNodes(query string) *GraphView {
	q := strings.ToLower(query)
	keep := make(map[string]struct{})
	s.g.EachNode(func(id string, attrs graph.Attrs) {
		if nodeMatchesQuery(q, id, attrs) {
			keep[id] = struct{}{}
		}
	})
	return s.viewOf(keep)
}

func nodeMatchesQuery(q, id string, attrs graph.Attrs) bool {
	if strings.Contains(strings.ToLower(id), q) {
		return true
	}
	for key, value := range attrs {
		if strings.Contains(strings.ToLower(key), q) {
			return true
		}
		if valueContains(value, q) {
			return true
		}
	}
	return false
}

func valueContains(value any, q string) bool {
	switch t := value.(type) {
	case []any:
		for _, elem := range t {
			if valueContains(elem, q) {
				return true
			}
		}
		return false
	default:
		s := graph.Stringify(value)
		return s != "" && strings.Contains(strings.ToLower(s), q)
	}
}

// Neighborhood expands breadth-first from startID up to maxDepth hops and
// returns the induced subgraph. Depth 0 is the start node alone. A missing
// start node reports found=false rather than an error.
func (s *GraphStore) Neighborhood(startID string, maxDepth int, dir graph.Direction) (*GraphView, bool) {
	if !s.g.HasNode(startID) {
		return nil, false
	}
	discovered := map[string]struct{}{startID: {}}
	frontier := []string{startID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, nodeID := range frontier {
			s.g.EachIncident(nodeID, dir, func(e *graph.Edge) {
				neighbor := e.OtherEnd(nodeID)
				if _, seen := discovered[neighbor]; seen {
					return
				}
				discovered[neighbor] = struct{}{}
				next = append(next, neighbor)
			})
		}
		frontier = next
	}
	return s.viewOf(discovered), true
}

// viewOf builds the induced subgraph over the given node set, with
// deterministic ordering.
func (s *GraphStore) viewOf(keep map[string]struct{}) *GraphView {
	view := &GraphView{Nodes: []NodeView{}, Edges: []EdgeView{}}
	for id := range keep {
		attrs, _ := s.g.NodeAttrs(id)
		view.Nodes = append(view.Nodes, NodeView{ID: id, Attributes: attrs.Clone()})
	}
	s.g.EachEdge(func(e *graph.Edge) {
		if _, ok := keep[e.Source]; !ok {
			return
		}
		if _, ok := keep[e.Target]; !ok {
			return
		}
		view.Edges = append(view.Edges, edgeView(e))
	})
	sortView(view)
	return view
}

func edgeView(e *graph.Edge) EdgeView {
	return EdgeView{
		ID:         e.ID,
		Source:     e.Source,
		Target:     e.Target,
		Undirected: e.Undirected,
		Attributes: e.Attrs.Clone(),
	}
}

func sortView(view *GraphView) {
	sort.Slice(view.Nodes, func(i, j int) bool { return view.Nodes[i].ID < view.Nodes[j].ID })
	sort.Slice(view.Edges, func(i, j int) bool { return view.Edges[i].ID < view.Edges[j].ID })
}
