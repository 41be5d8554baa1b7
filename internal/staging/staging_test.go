package staging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dubline/internal/staging"
	"dubline/internal/testsupport"
)

func TestWorkspaceLifecycle(t *testing.T) {
	root := t.TempDir()
	ws, err := staging.Open(root, "job-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ws.Dir() != filepath.Join(root, "job-1") {
		t.Fatalf("unexpected dir %q", ws.Dir())
	}
	testsupport.WriteFile(t, ws.Path("extracted.wav"), 10)
	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatal("workspace should be gone")
	}
	for _, bad := range []string{"", "..", "a/b"} {
		if _, err := staging.Open(root, bad); err == nil {
			t.Fatalf("expected job id %q rejected", bad)
		}
	}
}

func TestCleanStaleSkipsRecentAndActive(t *testing.T) {
	root := t.TempDir()
	old := time.Now().Add(-3 * time.Hour)
	for _, name := range []string{"stale", "busy", "fresh"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
		if name != "fresh" {
			if err := os.Chtimes(filepath.Join(root, name), old, old); err != nil {
				t.Fatal(err)
			}
		}
	}
	testsupport.WriteFile(t, filepath.Join(root, "loose-file"), 5)

	result := staging.CleanStale(context.Background(), root, time.Hour, map[string]struct{}{"busy": {}}, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != filepath.Join(root, "stale") {
		t.Fatalf("unexpected removals %v", result.Removed)
	}

	dirs, err := staging.ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected busy and fresh to remain, got %v", dirs)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := staging.CleanStale(context.Background(), dir, time.Hour, nil, nil)
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}
