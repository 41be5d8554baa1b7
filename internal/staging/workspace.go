package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the scratch directory of one job.
type Workspace struct {
	dir string
}

// Open creates (or reuses) the workspace for jobID under root.
func Open(root, jobID string) (Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return Workspace{}, fmt.Errorf("staging: root directory required")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" || strings.ContainsAny(jobID, `/\`) || jobID == "." || jobID == ".." {
		return Workspace{}, fmt.Errorf("staging: invalid job id %q", jobID)
	}
	dir := filepath.Join(root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("staging: create %s: %w", dir, err)
	}
	return Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w Workspace) Dir() string { return w.dir }

// Path returns the location of a named artifact inside the workspace.
func (w Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Remove deletes the workspace and everything in it.
func (w Workspace) Remove() error {
	if w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("staging: remove %s: %w", w.dir, err)
	}
	return nil
}
