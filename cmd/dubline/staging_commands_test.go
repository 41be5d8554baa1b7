package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dubline/internal/testsupport"
)

func makeWorkspace(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	testsupport.WriteFile(t, filepath.Join(dir, "extracted_audio.wav"), 1536)
	old := time.Now().Add(-age)
	if err := os.Chtimes(dir, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return dir
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	root := env.cfg.Paths.StagingDir

	busy := testsupport.NewJob(t, env.store, "/videos/busy.mp4")
	if err := env.store.Claim(ctx, busy.ID, "worker-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	busyDir := makeWorkspace(t, root, busy.ID, 72*time.Hour)
	staleDir := makeWorkspace(t, root, "stale-job", 72*time.Hour)
	freshDir := makeWorkspace(t, root, "fresh-job", time.Minute)

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "stale-job")
	requireContains(t, out, "Total: 3 directories")

	out, _, err = runCLI(t, []string{"staging", "clean"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 staging directories")
	if _, err := os.Stat(staleDir); !os.IsNotExist(err) {
		t.Fatalf("stale workspace should be removed: %v", err)
	}
	for _, dir := range []string{busyDir, freshDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("workspace %s should survive: %v", dir, err)
		}
	}

	out, _, err = runCLI(t, []string{"staging", "clean", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean --all: %v", err)
	}
	requireContains(t, out, "Removed 1 staging directories")
	if _, err := os.Stat(busyDir); err != nil {
		t.Fatalf("processing job workspace must never be removed: %v", err)
	}
	if _, err := os.Stat(freshDir); !os.IsNotExist(err) {
		t.Fatalf("--all should remove fresh workspaces: %v", err)
	}
}

func TestStagingListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "No staging directories found")
}
