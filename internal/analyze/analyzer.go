package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
	"github.com/codegraphlab/codegraph-mcp/internal/store"
)

// Summary reports what an analysis run did.
type Summary struct {
	FilesScanned     int      `json:"files_scanned"`
	FilesSkipped     int      `json:"files_skipped"`
	EntitiesCreated  int      `json:"entities_created"`
	EntitiesMerged   int      `json:"entities_merged"`
	RelationsCreated int      `json:"relations_created"`
	Errors           []string `json:"errors,omitempty"`
}

// Analyzer feeds chunker output into a project's graph store.
type Analyzer struct {
	chunker Chunker
	log     *slog.Logger
}

// New returns an analyzer backed by the tree-sitter chunker.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{chunker: NewTreeSitterChunker(), log: logger}
}

// ConstructID derives the node id for a construct chunk within a file.
func ConstructID(filePath string, c Chunk) string {
	if c.Name != "" {
		return filePath + "#" + c.Name
	}
	return fmt.Sprintf("%s#L%d", filePath, c.StartLine)
}

// ContainsEdgeID derives the deterministic id of a file->construct edge, so
// re-analyzing a file never duplicates containment.
func ContainsEdgeID(fileID, constructID string) string {
	return fileID + "::contains::" + constructID
}

// AnalyzeCodebase expands the glob patterns, chunks every supported file,
// and writes file nodes, construct nodes, and contains edges through the
// store's mutation API. Per-file failures are collected, not fatal.
func (a *Analyzer) AnalyzeCodebase(ctx context.Context, gs *store.GraphStore, patterns []string) (*Summary, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one path pattern is required")
	}

	sum := &Summary{}
	var entities []store.EntityInput
	var relations []store.RelationInput

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			info, err := os.Stat(path)
			if err != nil {
				sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", path, err))
				continue
			}
			if info.IsDir() {
				continue
			}
			if !a.chunker.Supports(path) {
				sum.FilesSkipped++
				continue
			}
			src, err := os.ReadFile(path)
			if err != nil {
				sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", path, err))
				continue
			}
			chunks, err := a.chunker.Chunk(ctx, path, src)
			if err != nil {
				sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", path, err))
				continue
			}
			sum.FilesScanned++

			entities = append(entities, store.EntityInput{
				ID:   path,
				Type: "file",
				Attributes: graph.Attrs{
					"name": filepath.Base(path),
					"path": path,
				},
			})
			for _, c := range chunks {
				constructID := ConstructID(path, c)
				attrs := graph.Attrs{
					"start_line": float64(c.StartLine),
					"end_line":   float64(c.EndLine),
					"content":    c.Content,
					"file":       path,
				}
				if c.Name != "" {
					attrs["name"] = c.Name
				}
				entities = append(entities, store.EntityInput{
					ID:         constructID,
					Type:       c.Type,
					Attributes: attrs,
				})
				relations = append(relations, store.RelationInput{
					ID:     ContainsEdgeID(path, constructID),
					Source: path,
					Target: constructID,
					Type:   "contains",
				})
			}
		}
	}

	if len(entities) > 0 {
		entRes, err := gs.CreateEntities(entities)
		if err != nil {
			return nil, err
		}
		sum.EntitiesCreated = len(entRes.Created)
		sum.EntitiesMerged = len(entRes.Merged)
		sum.Errors = append(sum.Errors, entRes.Errors...)
	}
	if len(relations) > 0 {
		relRes, err := gs.CreateRelations(relations)
		if err != nil {
			return nil, err
		}
		sum.RelationsCreated = len(relRes.Created)
		for _, e := range relRes.Errors {
			// Re-analysis recreates the same contains edges; duplicate ids
			// are expected there, not reportable failures.
			if !graphDuplicate(e) {
				sum.Errors = append(sum.Errors, e)
			}
		}
	}

	a.log.Info("codebase analyzed",
		"files", sum.FilesScanned,
		"skipped", sum.FilesSkipped,
		"entities", sum.EntitiesCreated+sum.EntitiesMerged,
		"relations", sum.RelationsCreated,
		"errors", len(sum.Errors))
	return sum, nil
}

func graphDuplicate(itemError string) bool {
	return strings.Contains(itemError, graph.ErrDuplicateEdge.Error())
}
