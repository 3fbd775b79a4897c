package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// The durable snapshot is a single JSON document. This is the durability
// contract: one snapshot per save, overwritten wholesale, and
// Decode(Encode(g)) must reconstruct a structurally equal graph.
//
//	{
//	  "options": {"type": "mixed", "multi": true, "allowSelfLoops": true},
//	  "nodes":   [{"key": "...", "attributes": {...}}, ...],
//	  "edges":   [{"key": "...", "source": "...", "target": "...",
//	               "attributes": {...}, "undirected": true}, ...]
//	}

type snapshotOptions struct {
	Type           string `json:"type"`
	Multi          bool   `json:"multi"`
	AllowSelfLoops bool   `json:"allowSelfLoops"`
}

type snapshotNode struct {
	Key        string `json:"key"`
	Attributes Attrs  `json:"attributes"`
}

type snapshotEdge struct {
	Key        string `json:"key"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Attributes Attrs  `json:"attributes"`
	Undirected bool   `json:"undirected,omitempty"`
}

type snapshot struct {
	Options snapshotOptions `json:"options"`
	Nodes   []snapshotNode  `json:"nodes"`
	Edges   []snapshotEdge  `json:"edges"`
}

// Encode serializes the whole graph. Nodes and edges are sorted by key so
// identical graphs produce identical bytes.
func Encode(g *Graph) ([]byte, error) {
	snap := snapshot{
		Options: snapshotOptions{Type: "mixed", Multi: true, AllowSelfLoops: true},
		Nodes:   make([]snapshotNode, 0, g.Order()),
		Edges:   make([]snapshotEdge, 0, g.Size()),
	}
	g.EachNode(func(id string, attrs Attrs) {
		snap.Nodes = append(snap.Nodes, snapshotNode{Key: id, Attributes: attrs})
	})
	g.EachEdge(func(e *Edge) {
		snap.Edges = append(snap.Edges, snapshotEdge{
			Key:        e.ID,
			Source:     e.Source,
			Target:     e.Target,
			Attributes: e.Attrs,
			Undirected: e.Undirected,
		})
	})
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Key < snap.Nodes[j].Key })
	sort.Slice(snap.Edges, func(i, j int) bool { return snap.Edges[i].Key < snap.Edges[j].Key })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode reconstructs a graph from snapshot bytes. Any parse failure or
// referential inconsistency wraps ErrCorruptStore.
func Decode(data []byte) (*Graph, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	g := New()
	for _, n := range snap.Nodes {
		if n.Key == "" {
			return nil, fmt.Errorf("%w: node with empty key", ErrCorruptStore)
		}
		if err := g.AddNode(n.Key, n.Attributes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
	}
	for _, e := range snap.Edges {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: edge with empty key", ErrCorruptStore)
		}
		if err := g.AddEdge(e.Key, e.Source, e.Target, e.Undirected, e.Attributes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
	}
	return g, nil
}

// Load reads the snapshot at path. A missing file yields a fresh empty
// graph; an unreadable or corrupt file is a hard error.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	g, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return g, nil
}

// Save writes the full snapshot to path, replacing any previous one. The
// write goes through a temp file in the same directory plus a rename so a
// crash never leaves a half-written snapshot behind.
func Save(path string, g *Graph) error {
	data, err := Encode(g)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
