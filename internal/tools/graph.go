package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
	"github.com/codegraphlab/codegraph-mcp/internal/session"
	"github.com/codegraphlab/codegraph-mcp/internal/store"
)

// GraphTools holds references needed by graph tool handlers.
type GraphTools struct {
	Session *session.Session
}

// --- Input types ---

type CreateEntitiesInput struct {
	Entities []store.EntityInput `json:"entities" jsonschema:"Array of entities to create or merge"`
}

type CreateRelationsInput struct {
	Relations []store.RelationInput `json:"relations" jsonschema:"Array of typed relations to create between existing entities"`
}

type CreateObservationsInput struct {
	Observations []store.ObservationInput `json:"observations" jsonschema:"Array of observations to attach to entities"`
}

type UpdateEntitiesInput struct {
	Updates []store.EntityUpdate `json:"updates" jsonschema:"Array of attribute merges for existing entities"`
}

type DeleteEntitiesInput struct {
	IDs []string `json:"ids" jsonschema:"Entity ids to delete (incident relations are removed too)"`
}

type DeleteRelationsInput struct {
	IDs []string `json:"ids" jsonschema:"Relation ids to delete"`
}

type ReadGraphInput struct {
	Filter *store.GraphFilter `json:"filter,omitempty" jsonschema:"Optional node filter: node_ids, types, exact attribute matches (AND)"`
}

type SearchNodesInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive substring matched against ids, names, types, content, tags, and attribute keys/values"`
}

type NeighborhoodInput struct {
	StartID   string `json:"start_id" jsonschema:"Entity id to expand from"`
	MaxDepth  int    `json:"max_depth" jsonschema:"Maximum hop count (0 returns just the start node)"`
	Direction string `json:"direction,omitempty" jsonschema:"Edge direction: outbound, inbound, or both (default both)"`
}

type QueryAdvancedInput struct {
	Query store.AdvancedQuery `json:"query" jsonschema:"Advanced query: query_type traversal or shortest_path plus options"`
}

// --- Handlers ---

func (t *GraphTools) requireProject() (*store.GraphStore, *mcp.CallToolResult) {
	gs := t.Session.GraphStore()
	if gs == nil {
		return nil, toolError("No active project. Use switch_project to select one.")
	}
	return gs, nil
}

func (t *GraphTools) CreateEntities(_ context.Context, _ *mcp.CallToolRequest, input CreateEntitiesInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.CreateEntities(input.Entities)
	if err != nil {
		return toolError("Failed to create entities: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *GraphTools) CreateRelations(_ context.Context, _ *mcp.CallToolRequest, input CreateRelationsInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.CreateRelations(input.Relations)
	if err != nil {
		return toolError("Failed to create relations: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *GraphTools) CreateObservations(_ context.Context, _ *mcp.CallToolRequest, input CreateObservationsInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.CreateObservations(input.Observations)
	if err != nil {
		return toolError("Failed to create observations: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *GraphTools) UpdateEntities(_ context.Context, _ *mcp.CallToolRequest, input UpdateEntitiesInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.UpdateEntities(input.Updates)
	if err != nil {
		return toolError("Failed to update entities: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *GraphTools) DeleteEntities(_ context.Context, _ *mcp.CallToolRequest, input DeleteEntitiesInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.DeleteEntities(input.IDs)
	if err != nil {
		return toolError("Failed to delete entities: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *GraphTools) DeleteRelations(_ context.Context, _ *mcp.CallToolRequest, input DeleteRelationsInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.DeleteRelations(input.IDs)
	if err != nil {
		return toolError("Failed to delete relations: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *GraphTools) ReadGraph(_ context.Context, _ *mcp.CallToolRequest, input ReadGraphInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	return toolJSON(gs.ReadGraph(input.Filter))
}

func (t *GraphTools) SearchNodes(_ context.Context, _ *mcp.CallToolRequest, input SearchNodesInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}
	if input.Query == "" {
		return toolError("Search query is required"), nil, nil
	}

	return toolJSON(gs.SearchNodes(input.Query))
}

func (t *GraphTools) GetNeighborhood(_ context.Context, _ *mcp.CallToolRequest, input NeighborhoodInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}
	if input.StartID == "" {
		return toolError("start_id is required"), nil, nil
	}
	if input.MaxDepth < 0 {
		return toolError("max_depth must be non-negative"), nil, nil
	}
	dir, err := graph.ParseDirection(input.Direction)
	if err != nil {
		return toolError("%v", err), nil, nil
	}

	view, found := gs.Neighborhood(input.StartID, input.MaxDepth, dir)
	if !found {
		return toolJSON(map[string]any{"found": false})
	}
	return toolJSON(map[string]any{"found": true, "graph": view})
}

func (t *GraphTools) QueryAdvanced(_ context.Context, _ *mcp.CallToolRequest, input QueryAdvancedInput) (*mcp.CallToolResult, any, error) {
	gs, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	res, err := gs.QueryAdvanced(input.Query)
	if err != nil {
		return toolError("Invalid query: %v", err), nil, nil
	}
	return toolJSON(res)
}
