package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubline/internal/fileutil"
	"dubline/internal/notifications"
	"dubline/internal/queue"
	"dubline/internal/services"
	"dubline/internal/testsupport"
)

func TestPipelineCompletesConformingVideo(t *testing.T) {
	h := newHarness(t)
	pipeline := h.build()
	input := h.writeVideo(t, "Holiday Clip.mp4", 4096)
	job := testsupport.NewJob(t, h.store, input)

	if err := pipeline.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", got.Status, got.ErrorDetail)
	}
	if got.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", got.Progress)
	}
	if got.ErrorDetail != "" {
		t.Fatalf("completed job carries error detail %q", got.ErrorDetail)
	}
	final := got.Artifacts.FinalVideo
	if !fileutil.Exists(final) {
		t.Fatalf("final video %q does not resolve", final)
	}
	if filepath.Dir(final) != filepath.Join(h.cfg.Paths.ResultsDir, job.ID) {
		t.Fatalf("final video published outside results dir: %s", final)
	}
	if base := filepath.Base(final); base != "Holiday Clip.ta.mp4" {
		t.Fatalf("unexpected final name %q", base)
	}
	data, err := os.ReadFile(got.Artifacts.TranslatedText)
	if err != nil {
		t.Fatalf("translated text not downloadable: %v", err)
	}
	if !strings.Contains(string(data), "HELLO FROM THE SOURCE LANGUAGE") {
		t.Fatalf("unexpected translation %q", data)
	}
	if !fileutil.Exists(got.Artifacts.SynthesizedAudio) {
		t.Fatalf("synthesized audio %q does not resolve", got.Artifacts.SynthesizedAudio)
	}
	if got.Artifacts.LipSyncedVideo == "" {
		t.Fatal("expected lip-synced video reference")
	}

	for _, st := range queue.AllStages() {
		state, ok := got.Stages[st]
		if !ok {
			t.Fatalf("stage %s missing", st)
		}
		if state.Status != queue.StageStatusCompleted || state.Progress != 100 {
			t.Fatalf("stage %s = %+v, want completed/100", st, state)
		}
	}

	if _, err := os.Stat(filepath.Join(h.cfg.Paths.StagingDir, job.ID)); !os.IsNotExist(err) {
		t.Fatalf("expected staging workspace removed, stat err=%v", err)
	}
	if h.tools.count("remux") != 1 || !strings.HasPrefix(filepath.Base(h.tools.remuxVideo), "lipsynced") {
		t.Fatalf("remux should consume the lip-synced video, got %q", h.tools.remuxVideo)
	}
}

func TestPipelineLipSyncFailure(t *testing.T) {
	h := newHarness(t)
	h.tools.syncErr = services.Wrap(services.ErrSyncFailed, "wav2lip", "inference", "face not detected", nil)
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "talk.mov", 2048))

	err := pipeline.Run(context.Background(), job.ID)
	if err == nil {
		t.Fatal("expected lip sync failure")
	}
	if !errors.Is(err, services.ErrSyncFailed) || services.KindOf(err) != services.KindExternalTool {
		t.Fatalf("unexpected error classification: %v (%s)", err, services.KindOf(err))
	}

	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorDetail, string(queue.StageLipSync)) {
		t.Fatalf("error detail should mention lip-sync: %q", got.ErrorDetail)
	}
	if got.Artifacts.FinalVideo != "" {
		t.Fatalf("failed job has final video %q", got.Artifacts.FinalVideo)
	}
	if got.Artifacts.ExtractedAudio == "" {
		t.Fatal("extracted audio reference should persist")
	}
	if resolvable(got.Artifacts.ExtractedAudio) {
		t.Fatalf("extracted audio %q should be purged with the workspace", got.Artifacts.ExtractedAudio)
	}
	if state := got.Stages[queue.StageLipSync]; state.Status != queue.StageStatusFailed {
		t.Fatalf("lip-sync stage = %+v, want failed", state)
	}
	if state := got.Stages[queue.StageAudioRemux]; state.Status != queue.StageStatusPending {
		t.Fatalf("remux stage = %+v, want pending", state)
	}
	if h.tools.count("remux") != 0 {
		t.Fatal("remux must not run after lip sync failure")
	}
}

func TestPipelineRejectsOversizedVideo(t *testing.T) {
	h := newHarness(t, testsupport.WithMaxVideoMB(1))
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "huge.mkv", 2*1024*1024))

	err := pipeline.Run(context.Background(), job.ID)
	if services.KindOf(err) != services.KindPreconditionFailed {
		t.Fatalf("expected precondition failure, got %v", err)
	}

	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorDetail, "precondition failed") {
		t.Fatalf("unexpected error detail %q", got.ErrorDetail)
	}
	if got.WorkerID != "" || got.LastHeartbeat != nil {
		t.Fatal("rejected job should never have been claimed")
	}
	if len(got.Stages) != 0 {
		t.Fatalf("rejected job should have no stage rows, got %v", got.Stages)
	}
	if calls := h.tools.totalCalls(); calls != 0 {
		t.Fatalf("expected no capability calls, got %d", calls)
	}
}

func TestPipelineRejectsUnsupportedFormat(t *testing.T) {
	h := newHarness(t)
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "notes.txt", 64))

	if err := pipeline.Run(context.Background(), job.ID); services.KindOf(err) != services.KindPreconditionFailed {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if got := testsupport.MustGetJob(t, h.store, job.ID); got.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
}

func TestPipelineEnforcesAudioFloors(t *testing.T) {
	h := newHarness(t)
	h.tools.sampleRate = 8000
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "phone.mp4", 1024))

	err := pipeline.Run(context.Background(), job.ID)
	if services.KindOf(err) != services.KindPreconditionFailed {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusFailed || !strings.HasPrefix(got.ErrorDetail, string(queue.StageAudioExtraction)) {
		t.Fatalf("unexpected outcome %s %q", got.Status, got.ErrorDetail)
	}
	if h.tools.count("transcribe") != 0 {
		t.Fatal("transcription must not run below the audio floors")
	}
}

func TestPipelineTranslationUnavailable(t *testing.T) {
	h := newHarness(t)
	h.tools.translateErr = errors.New("engine offline")
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "lecture.avi", 1024))

	err := pipeline.Run(context.Background(), job.ID)
	if services.KindOf(err) != services.KindTranslationUnavailable {
		t.Fatalf("expected translation unavailable, got %v", err)
	}
	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusFailed || got.Artifacts.TranslatedText != "" {
		t.Fatalf("unexpected outcome %+v", got)
	}
	if h.tools.count("synthesize") != 0 {
		t.Fatal("synthesis must not run without a translation")
	}
}

func TestPipelineWithoutLipSync(t *testing.T) {
	h := newHarness(t)
	h.cfg.LipSync.Enabled = false
	pipeline := h.build()
	input := h.writeVideo(t, "plain.mp4", 1024)
	job := testsupport.NewJob(t, h.store, input)

	if err := pipeline.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if h.tools.count("sync") != 0 {
		t.Fatal("lip sync engine should not run when disabled")
	}
	if h.tools.remuxVideo != input {
		t.Fatalf("remux should use the source video, got %q", h.tools.remuxVideo)
	}
	if got.Artifacts.LipSyncedVideo != "" {
		t.Fatalf("unexpected lip-synced reference %q", got.Artifacts.LipSyncedVideo)
	}
	if state := got.Stages[queue.StageLipSync]; state.Status != queue.StageStatusCompleted {
		t.Fatalf("lip-sync stage = %+v, want completed", state)
	}
}

func TestPipelineRecoversFromPanic(t *testing.T) {
	h := newHarness(t)
	h.tools.panicOnTranscr = true
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "boom.mp4", 1024))

	err := pipeline.Run(context.Background(), job.ID)
	if services.KindOf(err) != services.KindInternalInconsistency {
		t.Fatalf("expected internal inconsistency, got %v", err)
	}
	got := testsupport.MustGetJob(t, h.store, job.ID)
	if got.Status != queue.StatusFailed || !strings.Contains(got.ErrorDetail, "panic") {
		t.Fatalf("unexpected outcome %s %q", got.Status, got.ErrorDetail)
	}
	if state := got.Stages[queue.StageTranscription]; state.Status != queue.StageStatusFailed {
		t.Fatalf("transcription stage = %+v, want failed", state)
	}
}

func TestPipelineRefusesNonPendingJobs(t *testing.T) {
	h := newHarness(t)
	pipeline := h.build()
	ctx := context.Background()

	if err := pipeline.Run(ctx, "missing"); services.KindOf(err) != services.KindInternalInconsistency {
		t.Fatalf("missing job: expected internal inconsistency, got %v", err)
	}

	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "twice.mp4", 1024))
	if err := pipeline.Run(ctx, job.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	calls := h.tools.totalCalls()
	if err := pipeline.Run(ctx, job.ID); services.KindOf(err) != services.KindInternalInconsistency {
		t.Fatalf("second run: expected internal inconsistency, got %v", err)
	}
	if h.tools.totalCalls() != calls {
		t.Fatal("second run must not invoke capabilities")
	}
	if got := testsupport.MustGetJob(t, h.store, job.ID); got.Status != queue.StatusCompleted {
		t.Fatalf("terminal job changed to %s", got.Status)
	}
}

func TestPipelineObservesMonotoneProgress(t *testing.T) {
	h := newHarness(t)
	h.cfg.LipSync.Enabled = true
	h.cfg.LipSync.ProgressLow = 20
	h.cfg.LipSync.ProgressHigh = 60
	pipeline := h.build()
	job := testsupport.NewJob(t, h.store, h.writeVideo(t, "steady.mp4", 1024))

	if err := pipeline.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	obs := h.tools.observations
	if len(obs) < 6 {
		t.Fatalf("expected observations from every capability, got %d", len(obs))
	}
	last := -1
	for i, o := range obs {
		if o.status != queue.StatusProcessing {
			t.Fatalf("observation %d: capability ran while job was %s", i, o.status)
		}
		if o.progress < last {
			t.Fatalf("observation %d: progress fell from %d to %d", i, last, o.progress)
		}
		last = o.progress
	}
	if last >= 100 {
		t.Fatalf("progress reached %d before completion", last)
	}

	stored := h.tools.storedLipSyncProgress()
	if len(stored) == 0 {
		t.Fatal("no in-progress lip sync value reached the store")
	}
	prev := 0
	for i, p := range stored {
		if p < 20 || p > 60 {
			t.Fatalf("stored lip sync progress %d at update %d is outside [20, 60]", p, i)
		}
		if p < prev {
			t.Fatalf("stored lip sync progress fell from %d to %d", prev, p)
		}
		prev = p
	}
}

func TestPipelineNotifiesOutcomes(t *testing.T) {
	h := newHarness(t, testsupport.WithMaxVideoMB(1))
	pipeline := h.build()

	ok := testsupport.NewJob(t, h.store, h.writeVideo(t, "fine.mp4", 1024))
	if err := pipeline.Run(context.Background(), ok.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rejected := testsupport.NewJob(t, h.store, h.writeVideo(t, "huge.mp4", 2*1024*1024))
	if err := pipeline.Run(context.Background(), rejected.ID); err == nil {
		t.Fatal("expected rejection")
	}

	events := h.tools.notified()
	if len(events) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", events)
	}
	done := events[0]
	if done.event != notifications.EventJobCompleted || done.payload["jobId"] != ok.ID {
		t.Fatalf("unexpected completion event %+v", done)
	}
	if done.payload["output"] != testsupport.MustGetJob(t, h.store, ok.ID).Artifacts.FinalVideo {
		t.Fatalf("completion should carry the final video, got %+v", done.payload)
	}
	failed := events[1]
	if failed.event != notifications.EventJobFailed || failed.payload["jobId"] != rejected.ID {
		t.Fatalf("unexpected failure event %+v", failed)
	}
	if !strings.Contains(failed.payload["error"], "precondition failed") || failed.payload["input"] == "" {
		t.Fatalf("failure event lacks detail: %+v", failed.payload)
	}
}
