package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"dubline/internal/config"
	"dubline/internal/media/ffprobe"
	"dubline/internal/notifications"
	"dubline/internal/queue"
	"dubline/internal/services"
	"dubline/internal/testsupport"
	"dubline/internal/translation"
	"dubline/internal/workflow"
)

// observation is what a capability stub saw in the store when it ran.
type observation struct {
	status   queue.Status
	progress int
}

type notifiedEvent struct {
	event   notifications.Event
	payload notifications.Payload
}

// stubTools implements every capability deterministically. Stubs never call
// t.Fatalf because workers invoke them off the test goroutine.
type stubTools struct {
	store *queue.Store

	mu           sync.Mutex
	calls        map[string]int
	observations []observation
	remuxVideo   string
	events       []notifiedEvent
	lipSyncSeen  []int

	sampleRate int
	bitRate    int64

	syncErr        error
	translateErr   error
	panicOnTranscr bool
}

func newStubTools(store *queue.Store) *stubTools {
	return &stubTools{
		store:      store,
		calls:      make(map[string]int),
		sampleRate: 44100,
		bitRate:    128000,
	}
}

func (s *stubTools) record(ctx context.Context, name string) {
	var obs *observation
	if id, ok := services.JobIDFromContext(ctx); ok && s.store != nil {
		if job, err := s.store.Get(context.Background(), id); err == nil && job != nil {
			obs = &observation{status: job.Status, progress: job.Progress}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	if obs != nil {
		s.observations = append(s.observations, *obs)
	}
}

func (s *stubTools) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubTools) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *stubTools) Extract(ctx context.Context, videoPath, audioPath string) error {
	s.record(ctx, "extract")
	return testsupport.EncodeWAV(audioPath, 16000)
}

func (s *stubTools) AudioStream(ctx context.Context, path string) (ffprobe.AudioProperties, error) {
	s.record(ctx, "probe")
	return ffprobe.AudioProperties{SampleRate: s.sampleRate, BitRate: s.bitRate}, nil
}

func (s *stubTools) Transcribe(ctx context.Context, audioPath string, lang language.Tag) (string, error) {
	s.record(ctx, "transcribe")
	if s.panicOnTranscr {
		panic("transcriber exploded")
	}
	return "hello from the source language", nil
}

func (s *stubTools) Name() string { return "stub" }

func (s *stubTools) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	s.record(ctx, "translate")
	if s.translateErr != nil {
		return "", s.translateErr
	}
	return "[" + target.String() + "] " + strings.ToUpper(text), nil
}

func (s *stubTools) Synthesize(ctx context.Context, text, referenceAudio string, lang language.Tag, outPath string) error {
	s.record(ctx, "synthesize")
	return testsupport.EncodeWAV(outPath, 22050)
}

func (s *stubTools) Sync(ctx context.Context, req services.LipSyncRequest, progress func(float64)) error {
	s.record(ctx, "sync")
	if s.syncErr != nil {
		progress(0.3)
		return s.syncErr
	}
	id, _ := services.JobIDFromContext(ctx)
	stored := 0
	for _, f := range []float64{0.1, 0.5, 0.9, 1} {
		progress(f)
		if id != "" {
			stored = s.awaitLipSyncProgress(id, stored)
		}
	}
	return os.WriteFile(req.Output, []byte("lipsynced video"), 0o644)
}

// awaitLipSyncProgress waits briefly for the stored lip-sync stage to move
// off prev while still in progress, records the value and returns it.
func (s *stubTools) awaitLipSyncProgress(id string, prev int) int {
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		job, err := s.store.Get(context.Background(), id)
		if err == nil && job != nil {
			state, ok := job.Stages[queue.StageLipSync]
			if ok && state.Status == queue.StageStatusInProgress && state.Progress != prev {
				s.mu.Lock()
				s.lipSyncSeen = append(s.lipSyncSeen, state.Progress)
				s.mu.Unlock()
				return state.Progress
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return prev
}

func (s *stubTools) storedLipSyncProgress() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.lipSyncSeen...)
}

func (s *stubTools) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	s.record(ctx, "remux")
	s.mu.Lock()
	s.remuxVideo = videoPath
	s.mu.Unlock()
	data, err := os.ReadFile(videoPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, append(data, []byte("+dub")...), 0o644)
}

func (s *stubTools) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, notifiedEvent{event: event, payload: payload})
	return nil
}

func (s *stubTools) notified() []notifiedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifiedEvent(nil), s.events...)
}

// capabilities binds the stub to every capability. Translation goes through
// a real translation.Service so its chunking and retry policy run too.
func (s *stubTools) capabilities(cfg *config.Config) workflow.Capabilities {
	svc := translation.NewService(s, nil, translation.Options{
		Source:         cfg.SourceLanguage(),
		Target:         cfg.TargetLanguage(),
		MaxRetries:     2,
		RetryBaseDelay: 0,
		Sleep:          func(context.Context, time.Duration) error { return nil },
	})
	return workflow.Capabilities{
		Extractor:   s,
		Transcriber: s,
		Translator:  svc,
		Synthesizer: s,
		LipSync:     s,
		Remuxer:     s,
		Prober:      s,
		Notifier:    s,
	}
}

type harness struct {
	cfg      *config.Config
	store    *queue.Store
	tools    *stubTools
	pipeline *workflow.Pipeline
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	tools := newStubTools(store)
	return &harness{cfg: cfg, store: store, tools: tools}
}

// build creates the pipeline after tests have adjusted cfg or the stubs.
func (h *harness) build() *workflow.Pipeline {
	h.pipeline = workflow.NewPipeline(h.cfg, h.store, h.tools.capabilities(h.cfg), nil)
	return h.pipeline
}

func (h *harness) writeVideo(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(h.cfg), "inputs", name)
	testsupport.WriteFile(t, path, size)
	return path
}

func resolvable(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
