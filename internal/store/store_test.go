package store

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
)

func newTestStore(t *testing.T) *GraphStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	gs, err := Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return gs
}

func TestCreateEntities(t *testing.T) {
	gs := newTestStore(t)

	res, err := gs.CreateEntities([]EntityInput{
		{ID: "f1", Type: "function", Attributes: graph.Attrs{"lines": float64(10)}},
		{ID: "c1", Type: "class", Attributes: graph.Attrs{"name": "Parser"}},
		{Type: "orphan"}, // no id
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"f1", "c1"}, res.Created)
	assert.Empty(t, res.Merged)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "id is required")

	view := gs.ReadGraph(nil)
	require.Len(t, view.Nodes, 2)

	// Name defaults to id; an explicit name is kept.
	byID := nodesByID(view)
	assert.Equal(t, "f1", byID["f1"].Attributes["name"])
	assert.Equal(t, "function", byID["f1"].Attributes["type"])
	assert.Equal(t, "Parser", byID["c1"].Attributes["name"])
}

func TestCreateEntitiesMergeIdempotent(t *testing.T) {
	gs := newTestStore(t)

	_, err := gs.CreateEntities([]EntityInput{{ID: "f1", Type: "function", Attributes: graph.Attrs{"a": "1"}}})
	require.NoError(t, err)

	// Calling twice with the same payload ends up identical to calling once
	// with the union of attributes, and the id is never duplicated.
	for i := 0; i < 2; i++ {
		res, err := gs.CreateEntities([]EntityInput{{ID: "f1", Type: "function", Attributes: graph.Attrs{"b": "2"}}})
		require.NoError(t, err)
		assert.Empty(t, res.Created)
		assert.Equal(t, []string{"f1"}, res.Merged)
	}

	view := gs.ReadGraph(nil)
	require.Len(t, view.Nodes, 1)
	attrs := view.Nodes[0].Attributes
	assert.Equal(t, "1", attrs["a"])
	assert.Equal(t, "2", attrs["b"])
	assert.Equal(t, "function", attrs["type"])
}

func TestCreateEntitiesMergeNeverReplacesType(t *testing.T) {
	gs := newTestStore(t)

	_, err := gs.CreateEntities([]EntityInput{{ID: "f1", Type: "function"}})
	require.NoError(t, err)
	_, err = gs.CreateEntities([]EntityInput{{ID: "f1", Type: "class", Attributes: graph.Attrs{"type": "class"}}})
	require.NoError(t, err)

	view := gs.ReadGraph(nil)
	assert.Equal(t, "function", view.Nodes[0].Attributes["type"])
}

func TestCreateRelationsPartialSuccess(t *testing.T) {
	gs := newTestStore(t)
	mustCreateEntities(t, gs, "f1", "c1")

	res, err := gs.CreateRelations([]RelationInput{
		{ID: "r1", Source: "f1", Target: "c1", Type: "uses"},
		{ID: "r2", Source: "f1", Target: "ghost", Type: "uses"},
		{ID: "r1", Source: "c1", Target: "f1", Type: "uses"}, // duplicate id
		{ID: "r3", Source: "f1", Target: "c1"},               // missing type
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"r1"}, res.Created)
	require.Len(t, res.Errors, 3)

	// The invalid items never mutated the graph.
	view := gs.ReadGraph(nil)
	require.Len(t, view.Edges, 1)
	assert.Equal(t, "r1", view.Edges[0].ID)
	assert.Equal(t, "f1", view.Edges[0].Source)
}

func TestDeleteEntitiesCascades(t *testing.T) {
	gs := newTestStore(t)
	mustCreateEntities(t, gs, "f1", "c1")
	mustCreateRelations(t, gs, RelationInput{ID: "r1", Source: "f1", Target: "c1", Type: "uses"})

	res, err := gs.DeleteEntities([]string{"c1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, res.Deleted)
	assert.Equal(t, []string{"ghost"}, res.NotFound)

	view := gs.ReadGraph(nil)
	assert.Len(t, view.Nodes, 1)
	assert.Empty(t, view.Edges, "no edge touching a deleted node remains")
}

func TestDeleteRelations(t *testing.T) {
	gs := newTestStore(t)
	mustCreateEntities(t, gs, "f1", "c1")
	mustCreateRelations(t, gs, RelationInput{ID: "r1", Source: "f1", Target: "c1", Type: "uses"})

	res, err := gs.DeleteRelations([]string{"r1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, res.Deleted)
	assert.Equal(t, []string{"ghost"}, res.NotFound)

	view := gs.ReadGraph(nil)
	assert.Len(t, view.Nodes, 2, "endpoints survive relation deletion")
	assert.Empty(t, view.Edges)
}

func TestUpdateEntities(t *testing.T) {
	gs := newTestStore(t)
	mustCreateEntities(t, gs, "f1")

	res, err := gs.UpdateEntities([]EntityUpdate{
		{ID: "f1", Attributes: graph.Attrs{"reviewed": true}},
		{ID: "ghost", Attributes: graph.Attrs{"reviewed": true}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, res.Updated)
	assert.Equal(t, []string{"ghost"}, res.NotFound)

	view := gs.ReadGraph(nil)
	assert.Equal(t, true, view.Nodes[0].Attributes["reviewed"])
}

func TestCreateObservations(t *testing.T) {
	gs := newTestStore(t)
	mustCreateEntities(t, gs, "f1")

	res, err := gs.CreateObservations([]ObservationInput{{
		ID:               "o1",
		Content:          "note",
		Tags:             []string{"perf"},
		RelatedEntityIDs: []string{"f1", "missing"},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"o1"}, res.Created)
	assert.Equal(t, []string{RelatesToEdgeID("o1", "f1")}, res.Linked)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "missing")

	view := gs.ReadGraph(nil)
	require.Len(t, view.Nodes, 2)
	require.Len(t, view.Edges, 1)
	edge := view.Edges[0]
	assert.Equal(t, "o1", edge.Source)
	assert.Equal(t, "f1", edge.Target)
	assert.Equal(t, RelatesToType, edge.Attributes["type"])

	byID := nodesByID(view)
	assert.Equal(t, ObservationType, byID["o1"].Attributes["type"])
	assert.Equal(t, "note", byID["o1"].Attributes["content"])
}

func TestCreateObservationsRelinkIdempotent(t *testing.T) {
	gs := newTestStore(t)
	mustCreateEntities(t, gs, "f1")

	input := []ObservationInput{{ID: "o1", Content: "note", RelatedEntityIDs: []string{"f1"}}}
	_, err := gs.CreateObservations(input)
	require.NoError(t, err)

	res, err := gs.CreateObservations(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, res.Merged)
	assert.Empty(t, res.Linked, "re-declaring the same link is a no-op")

	view := gs.ReadGraph(nil)
	assert.Len(t, view.Edges, 1)
}

func TestCreateObservationsGeneratesID(t *testing.T) {
	gs := newTestStore(t)

	res, err := gs.CreateObservations([]ObservationInput{{Content: "anonymous note"}})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.NotEmpty(t, res.Created[0])
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	logger := slog.New(slog.DiscardHandler)

	gs, err := Open(path, logger)
	require.NoError(t, err)
	mustCreateEntities(t, gs, "f1", "c1")
	mustCreateRelations(t, gs, RelationInput{ID: "r1", Source: "f1", Target: "c1", Type: "uses"})

	reopened, err := Open(path, logger)
	require.NoError(t, err)
	view := reopened.ReadGraph(nil)
	assert.Len(t, view.Nodes, 2)
	assert.Len(t, view.Edges, 1)
}

func TestPersistFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	gs, err := Open(filepath.Join(dir, "graph.json"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	// Point the store at an unwritable location after opening.
	gs.path = filepath.Join(dir, "no-such-dir", "graph.json")

	res, err := gs.CreateEntities([]EntityInput{{ID: "f1", Type: "function"}})
	require.ErrorIs(t, err, graph.ErrPersistence)
	// The in-memory mutation already happened; the result reports it.
	assert.Equal(t, []string{"f1"}, res.Created)
}

// Scenario from the durability contract: create two entities and a
// relation, then cascade-delete one endpoint.
func TestCreateDeleteScenario(t *testing.T) {
	gs := newTestStore(t)

	_, err := gs.CreateEntities([]EntityInput{
		{ID: "f1", Type: "function"},
		{ID: "c1", Type: "class"},
	})
	require.NoError(t, err)
	mustCreateRelations(t, gs, RelationInput{ID: "r1", Source: "f1", Target: "c1", Type: "uses"})

	view := gs.ReadGraph(nil)
	assert.Len(t, view.Nodes, 2)
	assert.Len(t, view.Edges, 1)

	_, err = gs.DeleteEntities([]string{"c1"})
	require.NoError(t, err)

	view = gs.ReadGraph(nil)
	assert.Len(t, view.Nodes, 1)
	assert.Empty(t, view.Edges)
}

// --- helpers ---

func mustCreateEntities(t *testing.T, gs *GraphStore, ids ...string) {
	t.Helper()
	inputs := make([]EntityInput, len(ids))
	for i, id := range ids {
		inputs[i] = EntityInput{ID: id, Type: "entity"}
	}
	res, err := gs.CreateEntities(inputs)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
}

func mustCreateRelations(t *testing.T, gs *GraphStore, inputs ...RelationInput) {
	t.Helper()
	res, err := gs.CreateRelations(inputs)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
}

func nodesByID(view *GraphView) map[string]NodeView {
	out := make(map[string]NodeView, len(view.Nodes))
	for _, n := range view.Nodes {
		out[n.ID] = n
	}
	return out
}
