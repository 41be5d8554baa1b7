package api_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dubline/internal/api"
	"dubline/internal/queue"
	"dubline/internal/testsupport"
	"dubline/internal/workflow"
)

type recordingSubmitter struct {
	ids []string
	err error
}

func (r *recordingSubmitter) Submit(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return r.err
}

func TestDescribeListsOnlyResolvableOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewJobService(store, nil)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "/videos/in.mp4")
	if err := store.Claim(ctx, job.ID, "w"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.RegisterStages(ctx, job.ID, queue.AllStages()...); err != nil {
		t.Fatalf("RegisterStages: %v", err)
	}
	present := filepath.Join(testsupport.BaseDir(cfg), "results", "translation.txt")
	testsupport.WriteFile(t, present, 10)
	if err := store.SetArtifact(ctx, job.ID, queue.ArtifactTranslatedText, present); err != nil {
		t.Fatalf("SetArtifact: %v", err)
	}
	if err := store.SetArtifact(ctx, job.ID, queue.ArtifactSynthesizedAudio, "/purged/dub.wav"); err != nil {
		t.Fatalf("SetArtifact: %v", err)
	}

	got, err := svc.Describe(ctx, job.ID)
	if err != nil || got == nil {
		t.Fatalf("Describe: %v %v", got, err)
	}
	if got.Status != "processing" || got.Progress != 0 {
		t.Fatalf("unexpected status %q/%d", got.Status, got.Progress)
	}
	if got.Outputs.TranslatedText != present {
		t.Fatalf("expected translated text output, got %+v", got.Outputs)
	}
	if got.Outputs.SynthesizedAudio != "" || got.Outputs.FinalVideo != "" {
		t.Fatalf("unresolvable outputs must be omitted, got %+v", got.Outputs)
	}
	if len(got.Stages) != len(queue.AllStages()) || got.Stages[0].Name != string(queue.StageAudioExtraction) {
		t.Fatalf("stages not in pipeline order: %+v", got.Stages)
	}
	if got.CreatedAt == "" || got.UpdatedAt == "" {
		t.Fatal("expected formatted timestamps")
	}

	missing, err := svc.Describe(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing job: got %v, %v", missing, err)
	}
}

func TestCreateSubmitsAndToleratesFullQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sub := &recordingSubmitter{}
	svc := api.NewJobService(store, sub)
	ctx := context.Background()

	job, err := svc.Create(ctx, api.CreateJobRequest{InputPath: " /videos/a.mp4 ", OwnerID: "user-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != "pending" || job.InputPath != "/videos/a.mp4" || job.OwnerID != "user-1" {
		t.Fatalf("unexpected job %+v", job)
	}
	if len(sub.ids) != 1 || sub.ids[0] != job.ID {
		t.Fatalf("expected submission of %s, got %v", job.ID, sub.ids)
	}

	sub.err = workflow.ErrQueueFull
	if _, err := svc.Create(ctx, api.CreateJobRequest{InputPath: "/videos/b.mp4"}); err != nil {
		t.Fatalf("full queue should not fail creation: %v", err)
	}
	sub.err = errors.New("boom")
	if _, err := svc.Create(ctx, api.CreateJobRequest{InputPath: "/videos/c.mp4"}); err == nil {
		t.Fatal("expected submit error")
	}
	if _, err := svc.Create(ctx, api.CreateJobRequest{}); !errors.Is(err, api.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	jobs, err := svc.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 pending jobs, got %d", len(jobs))
	}
}

func TestParseStatuses(t *testing.T) {
	got, err := api.ParseStatuses([]string{"pending,FAILED", " "})
	if err != nil {
		t.Fatalf("ParseStatuses: %v", err)
	}
	if len(got) != 2 || got[0] != queue.StatusPending || got[1] != queue.StatusFailed {
		t.Fatalf("unexpected statuses %v", got)
	}
	if _, err := api.ParseStatuses([]string{"bogus"}); !errors.Is(err, api.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestMergeQueueStatsIncludesEveryStatus(t *testing.T) {
	stats := api.MergeQueueStats(map[queue.Status]int{queue.StatusFailed: 2})
	if len(stats) != 4 || stats["failed"] != 2 || stats["pending"] != 0 {
		t.Fatalf("unexpected stats %v", stats)
	}
}
