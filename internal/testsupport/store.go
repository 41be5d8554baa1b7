package testsupport

import (
	"context"
	"testing"

	"dubline/internal/config"
	"dubline/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, inputPath string) *queue.Job {
	t.Helper()

	job, err := store.Create(context.Background(), inputPath, "")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}

// MustGetJob reloads a job and fails the test when it is missing.
func MustGetJob(t testing.TB, store *queue.Store, id string) *queue.Job {
	t.Helper()

	job, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if job == nil {
		t.Fatalf("job %s not found", id)
	}
	return job
}
