package server

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraphlab/codegraph-mcp/internal/analyze"
	"github.com/codegraphlab/codegraph-mcp/internal/registry"
	"github.com/codegraphlab/codegraph-mcp/internal/session"
	"github.com/codegraphlab/codegraph-mcp/internal/tools"
)

// New creates a fully configured MCP server with all tools registered.
func New(reg *registry.Registry, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	sess := session.New(logger)

	pt := &tools.ProjectTools{Registry: reg, Session: sess}
	gt := &tools.GraphTools{Session: sess}
	at := &tools.AnalyzeTools{Session: sess, Analyzer: analyze.New(logger)}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph-mcp",
		Version: "0.1.0",
	}, nil)

	// Project management tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with optional status filter (active, archived, all)",
	}, pt.ListProjects)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a new project with its own isolated graph snapshot",
	}, pt.CreateProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "switch_project",
		Description: "Switch the active project context for the current session",
	}, pt.SwitchProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_current_project",
		Description: "Get information about the currently active project",
	}, pt.GetCurrentProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "archive_project",
		Description: "Archive a project (preserves data, makes it inactive)",
	}, pt.ArchiveProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_project",
		Description: "Permanently delete a project and all its data (irreversible)",
	}, pt.DeleteProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "restore_project",
		Description: "Restore an archived project back to active status",
	}, pt.RestoreProject)

	// Graph tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_entities",
		Description: "Create entities in the code graph; existing ids are merged, never duplicated (requires active project)",
	}, gt.CreateEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_relations",
		Description: "Create typed relations between existing entities; invalid items are skipped and reported (requires active project)",
	}, gt.CreateRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_observations",
		Description: "Create observation nodes linked to the entities they describe (requires active project)",
	}, gt.CreateObservations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_entities",
		Description: "Merge attributes into existing entities (requires active project)",
	}, gt.UpdateEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_entities",
		Description: "Delete entities and every relation touching them (requires active project)",
	}, gt.DeleteEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_relations",
		Description: "Delete relations by id (requires active project)",
	}, gt.DeleteRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "read_graph",
		Description: "Read the graph, optionally filtered by ids, types, and attribute values (requires active project)",
	}, gt.ReadGraph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Substring search across entity ids, names, types, content, tags, and attributes (requires active project)",
	}, gt.SearchNodes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_neighborhood",
		Description: "Breadth-first neighborhood of an entity up to a depth bound (requires active project)",
	}, gt.GetNeighborhood)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "query_graph_advanced",
		Description: "Advanced graph query: conditional traversal or weighted shortest path (requires active project)",
	}, gt.QueryAdvanced)

	// Analysis tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "analyze_codebase",
		Description: "Parse source files matching globs into file/construct entities and contains relations (requires active project)",
	}, at.AnalyzeCodebase)

	return srv
}
