package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraphlab/codegraph-mcp/internal/analyze"
	"github.com/codegraphlab/codegraph-mcp/internal/session"
)

// AnalyzeTools holds references needed by the codebase analysis handler.
type AnalyzeTools struct {
	Session  *session.Session
	Analyzer *analyze.Analyzer
}

type AnalyzeCodebaseInput struct {
	Paths []string `json:"paths" jsonschema:"File path globs to analyze (e.g. internal/*.go, src/*.py)"`
}

func (t *AnalyzeTools) AnalyzeCodebase(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeCodebaseInput) (*mcp.CallToolResult, any, error) {
	gs := t.Session.GraphStore()
	if gs == nil {
		return toolError("No active project. Use switch_project to select one."), nil, nil
	}
	if len(input.Paths) == 0 {
		return toolError("At least one path glob is required"), nil, nil
	}

	summary, err := t.Analyzer.AnalyzeCodebase(ctx, gs, input.Paths)
	if err != nil {
		return toolError("Analysis failed: %v", err), nil, nil
	}
	return toolJSON(summary)
}
