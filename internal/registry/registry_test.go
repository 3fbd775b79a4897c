package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestOpenCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	reg, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reg.Close()

	for _, p := range []string{"_meta.db", "graphs", "archive"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
}

func TestCreateAndGetProject(t *testing.T) {
	reg := openTestRegistry(t)

	proj, err := reg.CreateProject("alpha", "first project")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if proj.ID == "" {
		t.Error("expected generated project id")
	}
	if proj.Status != "active" {
		t.Errorf("status = %q, want active", proj.Status)
	}

	// The snapshot is seeded at creation time.
	if _, err := os.Stat(reg.GraphPath(proj)); err != nil {
		t.Errorf("expected seeded snapshot: %v", err)
	}

	byName, err := reg.GetProjectByName("alpha")
	if err != nil {
		t.Fatalf("GetProjectByName: %v", err)
	}
	if byName.ID != proj.ID {
		t.Errorf("id mismatch: %q vs %q", byName.ID, proj.ID)
	}

	byID, err := reg.GetProjectByID(proj.ID)
	if err != nil {
		t.Fatalf("GetProjectByID: %v", err)
	}
	if byID.Name != "alpha" {
		t.Errorf("name = %q, want alpha", byID.Name)
	}
}

func TestCreateProjectDuplicateName(t *testing.T) {
	reg := openTestRegistry(t)

	if _, err := reg.CreateProject("alpha", ""); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := reg.CreateProject("alpha", ""); err == nil {
		t.Error("expected duplicate name to fail")
	}
}

func TestGetProjectNotFound(t *testing.T) {
	reg := openTestRegistry(t)
	if _, err := reg.GetProjectByName("nope"); err == nil {
		t.Error("expected error for unknown project")
	}
}

func TestListProjectsByStatus(t *testing.T) {
	reg := openTestRegistry(t)

	for _, name := range []string{"beta", "alpha"} {
		if _, err := reg.CreateProject(name, ""); err != nil {
			t.Fatalf("CreateProject(%s): %v", name, err)
		}
	}
	if _, err := reg.ArchiveProject("beta"); err != nil {
		t.Fatalf("ArchiveProject: %v", err)
	}

	active, err := reg.ListProjects("active")
	if err != nil {
		t.Fatalf("ListProjects(active): %v", err)
	}
	if len(active) != 1 || active[0].Name != "alpha" {
		t.Errorf("active = %v, want [alpha]", active)
	}

	all, err := reg.ListProjects("all")
	if err != nil {
		t.Fatalf("ListProjects(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	// Ordered by name.
	if all[0].Name != "alpha" || all[1].Name != "beta" {
		t.Errorf("order = [%s %s], want [alpha beta]", all[0].Name, all[1].Name)
	}
}

func TestArchiveAndRestoreMoveSnapshot(t *testing.T) {
	reg := openTestRegistry(t)

	proj, err := reg.CreateProject("alpha", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	activePath := reg.GraphPath(proj)

	archived, err := reg.ArchiveProject("alpha")
	if err != nil {
		t.Fatalf("ArchiveProject: %v", err)
	}
	if archived.Status != "archived" {
		t.Errorf("status = %q, want archived", archived.Status)
	}
	if _, err := os.Stat(activePath); !os.IsNotExist(err) {
		t.Error("snapshot should have left graphs/")
	}
	if _, err := os.Stat(reg.GraphPath(archived)); err != nil {
		t.Errorf("snapshot should be in archive/: %v", err)
	}

	// Archiving twice fails.
	if _, err := reg.ArchiveProject("alpha"); err == nil {
		t.Error("expected double archive to fail")
	}

	restored, err := reg.RestoreProject("alpha")
	if err != nil {
		t.Fatalf("RestoreProject: %v", err)
	}
	if restored.Status != "active" {
		t.Errorf("status = %q, want active", restored.Status)
	}
	if _, err := os.Stat(reg.GraphPath(restored)); err != nil {
		t.Errorf("snapshot should be back in graphs/: %v", err)
	}

	// Restoring an active project fails.
	if _, err := reg.RestoreProject("alpha"); err == nil {
		t.Error("expected restore of active project to fail")
	}
}

func TestDeleteProjectRemovesSnapshot(t *testing.T) {
	reg := openTestRegistry(t)

	proj, err := reg.CreateProject("alpha", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	snapshot := reg.GraphPath(proj)

	if err := reg.DeleteProject("alpha"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := os.Stat(snapshot); !os.IsNotExist(err) {
		t.Error("snapshot should be gone after delete")
	}
	if _, err := reg.GetProjectByName("alpha"); err == nil {
		t.Error("project record should be gone after delete")
	}
}
