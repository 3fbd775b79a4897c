package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixtureGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddNode("f1", Attrs{"type": "function", "name": "parse", "lines": float64(42)}))
	require.NoError(t, g.AddNode("c1", Attrs{"type": "class", "name": "Parser", "tags": []any{"core", "io"}}))
	require.NoError(t, g.AddNode("o1", Attrs{"type": "observation", "content": "slow on big files"}))
	require.NoError(t, g.AddEdge("r1", "f1", "c1", false, Attrs{"type": "uses", "weight": float64(2)}))
	require.NoError(t, g.AddEdge("r2", "f1", "c1", false, Attrs{"type": "uses"}))
	require.NoError(t, g.AddEdge("loop", "c1", "c1", false, Attrs{"type": "references"}))
	require.NoError(t, g.AddEdge("u1", "o1", "f1", true, Attrs{"type": "relates_to"}))
	return g
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := buildFixtureGraph(t)

	data, err := Encode(g)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, g.Order(), decoded.Order())
	assert.Equal(t, g.Size(), decoded.Size())

	g.EachNode(func(id string, attrs Attrs) {
		got, ok := decoded.NodeAttrs(id)
		require.True(t, ok, "node %q missing after round trip", id)
		assert.Equal(t, attrs, got, "node %q attributes", id)
	})
	g.EachEdge(func(e *Edge) {
		got, ok := decoded.Edge(e.ID)
		require.True(t, ok, "edge %q missing after round trip", e.ID)
		assert.Equal(t, e.Source, got.Source)
		assert.Equal(t, e.Target, got.Target)
		assert.Equal(t, e.Undirected, got.Undirected)
		assert.Equal(t, e.Attrs, got.Attrs, "edge %q attributes", e.ID)
	})
}

func TestEncodeDeterministic(t *testing.T) {
	g := buildFixtureGraph(t)

	first, err := Encode(g)
	require.NoError(t, err)
	second, err := Encode(g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeCorrupt(t *testing.T) {
	cases := map[string]string{
		"not json":          `{nodes: [}`,
		"empty node key":    `{"options":{"type":"mixed","multi":true,"allowSelfLoops":true},"nodes":[{"key":"","attributes":{}}],"edges":[]}`,
		"duplicate node":    `{"options":{},"nodes":[{"key":"a","attributes":{}},{"key":"a","attributes":{}}],"edges":[]}`,
		"dangling endpoint": `{"options":{},"nodes":[{"key":"a","attributes":{}}],"edges":[{"key":"e","source":"a","target":"ghost","attributes":{}}]}`,
		"duplicate edge":    `{"options":{},"nodes":[{"key":"a","attributes":{}}],"edges":[{"key":"e","source":"a","target":"a","attributes":{}},{"key":"e","source":"a","target":"a","attributes":{}}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			assert.ErrorIs(t, err, ErrCorruptStore)
		})
	}
}

func TestLoadMissingFileYieldsEmptyGraph(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Order())
	assert.Equal(t, 0, g.Size())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrCorruptStore)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildFixtureGraph(t)
	path := filepath.Join(t.TempDir(), "graph.json")

	require.NoError(t, Save(path, g))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, g.Order(), loaded.Order())
	assert.Equal(t, g.Size(), loaded.Size())

	// Save overwrites wholesale: dropping a node shrinks the snapshot.
	require.NoError(t, g.DropNode("c1"))
	require.NoError(t, Save(path, g))
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Order())
	assert.Equal(t, 1, reloaded.Size())
}

func TestSaveFailsOnBadPath(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "missing-dir", "graph.json"), New())
	assert.ErrorIs(t, err, ErrPersistence)
}
