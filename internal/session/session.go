package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/codegraphlab/codegraph-mcp/internal/models"
	"github.com/codegraphlab/codegraph-mcp/internal/registry"
	"github.com/codegraphlab/codegraph-mcp/internal/store"
)

// Session holds the current project context for an MCP session.
type Session struct {
	mu                 sync.Mutex
	currentProjectID   string
	currentProjectName string
	graph              *store.GraphStore
	log                *slog.Logger
}

// New creates a new empty session with no active project.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{log: logger}
}

// SwitchProject releases the current graph (if any) and loads the given
// project's snapshot.
func (s *Session) SwitchProject(reg *registry.Registry, name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proj, err := reg.GetProjectByName(name)
	if err != nil {
		return nil, err
	}
	if proj.Status == "archived" {
		return nil, fmt.Errorf("project %q is archived; restore it first", name)
	}

	gs, err := store.Open(reg.GraphPath(proj), s.log.With("project", proj.Name))
	if err != nil {
		return nil, fmt.Errorf("open project graph: %w", err)
	}

	s.currentProjectID = proj.ID
	s.currentProjectName = proj.Name
	s.graph = gs

	return proj, nil
}

// GetCurrent returns info about the current project, or ok=false if none is
// active.
func (s *Session) GetCurrent() (id, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return "", "", false
	}
	return s.currentProjectID, s.currentProjectName, true
}

// GraphStore returns the current project's graph store, or nil if no
// project is active.
func (s *Session) GraphStore() *store.GraphStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Clear resets session state. The graph store holds no open file handle;
// the snapshot on disk is already current after the last successful
// mutation, so there is nothing to flush.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = nil
	s.currentProjectID = ""
	s.currentProjectName = ""
}

// Close is an alias for Clear, used during server shutdown.
func (s *Session) Close() {
	s.Clear()
}
