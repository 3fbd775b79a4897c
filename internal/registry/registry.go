// Package registry manages the central _meta.db sqlite database tracking
// projects. Each project owns exactly one JSON graph snapshot file; the
// registry creates, archives, restores, and deletes those files alongside
// the project records.
package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
	"github.com/codegraphlab/codegraph-mcp/internal/models"
)

// Registry manages the project registry database and snapshot files.
type Registry struct {
	db      *sql.DB
	dataDir string
}

// Open opens (or creates) the _meta.db database and the graphs/archive
// directories under dataDir.
func Open(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "graphs"), 0o755); err != nil {
		return nil, fmt.Errorf("create graphs dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "archive"), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "_meta.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open meta db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate meta db: %w", err)
	}

	return &Registry{db: db, dataDir: dataDir}, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// DataDir returns the base data directory.
func (r *Registry) DataDir() string {
	return r.dataDir
}

// CreateProject creates a project record and its empty graph snapshot.
func (r *Registry) CreateProject(name, description string) (*models.Project, error) {
	id := uuid.New().String()
	graphPath := filepath.Join("graphs", id+".json")

	_, err := r.db.Exec(
		`INSERT INTO projects (id, name, description, graph_path, status) VALUES (?, ?, ?, ?, 'active')`,
		id, name, description, graphPath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	// Seed the snapshot so a later load never has to distinguish
	// "new project" from "missing file".
	absPath := filepath.Join(r.dataDir, graphPath)
	if err := graph.Save(absPath, graph.New()); err != nil {
		r.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
		return nil, fmt.Errorf("seed graph snapshot: %w", err)
	}

	return r.GetProjectByName(name)
}

// GetProjectByName looks up a project by its unique name.
func (r *Registry) GetProjectByName(name string) (*models.Project, error) {
	row := r.db.QueryRow(
		`SELECT id, name, description, graph_path, status, created_at, updated_at FROM projects WHERE name = ?`,
		name,
	)
	return scanProject(row)
}

// GetProjectByID looks up a project by its UUID.
func (r *Registry) GetProjectByID(id string) (*models.Project, error) {
	row := r.db.QueryRow(
		`SELECT id, name, description, graph_path, status, created_at, updated_at FROM projects WHERE id = ?`,
		id,
	)
	return scanProject(row)
}

// ListProjects returns projects filtered by status. Use "all" for no filter.
func (r *Registry) ListProjects(status string) ([]models.Project, error) {
	var rows *sql.Rows
	var err error

	if status == "all" {
		rows, err = r.db.Query(
			`SELECT id, name, description, graph_path, status, created_at, updated_at FROM projects ORDER BY name`,
		)
	} else {
		rows, err = r.db.Query(
			`SELECT id, name, description, graph_path, status, created_at, updated_at FROM projects WHERE status = ? ORDER BY name`,
			status,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.GraphPath, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ArchiveProject archives a project: sets status to 'archived' and moves
// its snapshot from graphs/ to archive/.
func (r *Registry) ArchiveProject(name string) (*models.Project, error) {
	proj, err := r.GetProjectByName(name)
	if err != nil {
		return nil, err
	}
	if proj.Status == "archived" {
		return nil, fmt.Errorf("project %q is already archived", name)
	}

	oldPath := filepath.Join(r.dataDir, proj.GraphPath)
	newRelPath := filepath.Join("archive", filepath.Base(proj.GraphPath))
	newPath := filepath.Join(r.dataDir, newRelPath)

	if err := os.Rename(oldPath, newPath); err != nil {
		return nil, fmt.Errorf("move graph snapshot to archive: %w", err)
	}

	_, err = r.db.Exec(
		`UPDATE projects SET status = 'archived', graph_path = ?, updated_at = datetime('now') WHERE name = ?`,
		newRelPath, name,
	)
	if err != nil {
		// Try to undo the file move
		os.Rename(newPath, oldPath)
		return nil, fmt.Errorf("update project status: %w", err)
	}

	return r.GetProjectByName(name)
}

// RestoreProject restores an archived project back to active status.
func (r *Registry) RestoreProject(name string) (*models.Project, error) {
	proj, err := r.GetProjectByName(name)
	if err != nil {
		return nil, err
	}
	if proj.Status != "archived" {
		return nil, fmt.Errorf("project %q is not archived", name)
	}

	oldPath := filepath.Join(r.dataDir, proj.GraphPath)
	newRelPath := filepath.Join("graphs", filepath.Base(proj.GraphPath))
	newPath := filepath.Join(r.dataDir, newRelPath)

	if err := os.Rename(oldPath, newPath); err != nil {
		return nil, fmt.Errorf("move graph snapshot from archive: %w", err)
	}

	_, err = r.db.Exec(
		`UPDATE projects SET status = 'active', graph_path = ?, updated_at = datetime('now') WHERE name = ?`,
		newRelPath, name,
	)
	if err != nil {
		os.Rename(newPath, oldPath)
		return nil, fmt.Errorf("update project status: %w", err)
	}

	return r.GetProjectByName(name)
}

// DeleteProject permanently removes a project record and its snapshot file.
func (r *Registry) DeleteProject(name string) error {
	proj, err := r.GetProjectByName(name)
	if err != nil {
		return err
	}

	// Remove snapshot file (ignore error if already gone)
	os.Remove(filepath.Join(r.dataDir, proj.GraphPath))

	_, err = r.db.Exec(`DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete project record: %w", err)
	}
	return nil
}

// GraphPath returns the absolute path to a project's snapshot file.
func (r *Registry) GraphPath(proj *models.Project) string {
	return filepath.Join(r.dataDir, proj.GraphPath)
}

// scanProject scans a single project row.
func scanProject(row *sql.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.GraphPath, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}
