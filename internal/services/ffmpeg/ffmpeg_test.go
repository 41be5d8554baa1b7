package ffmpeg_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"dubline/internal/services"
	"dubline/internal/services/ffmpeg"
)

type recordingExecutor struct {
	binary string
	args   []string
	err    error
}

func (r *recordingExecutor) Run(_ context.Context, binary string, args []string, _ func(string)) error {
	r.binary = binary
	r.args = args
	return r.err
}

func TestExtractArgs(t *testing.T) {
	exec := &recordingExecutor{}
	client := ffmpeg.New("/opt/ffmpeg", exec)
	if err := client.Extract(context.Background(), "in.mp4", "out.wav"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if exec.binary != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}
	joined := strings.Join(exec.args, " ")
	for _, want := range []string{"-i in.mp4", "-q:a 0", "-map a:0", "-vn"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	if exec.args[len(exec.args)-1] != "out.wav" {
		t.Fatalf("output must be last: %v", exec.args)
	}
}

func TestReplaceAudioArgs(t *testing.T) {
	exec := &recordingExecutor{}
	if err := ffmpeg.New("", exec).ReplaceAudio(context.Background(), "v.mp4", "a.wav", "final.mp4"); err != nil {
		t.Fatalf("ReplaceAudio: %v", err)
	}
	if exec.binary != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", exec.binary)
	}
	for _, want := range []string{"-shortest", "0:v:0", "1:a:0", "copy"} {
		if !slices.Contains(exec.args, want) {
			t.Fatalf("expected %q in %v", want, exec.args)
		}
	}
}

func TestFailuresCarryMarkers(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("exit status 1")}
	client := ffmpeg.New("ffmpeg", exec)
	if err := client.Extract(context.Background(), "in.mp4", "out.wav"); !errors.Is(err, services.ErrExtractionFailed) {
		t.Fatalf("expected extraction marker, got %v", err)
	}
	if err := client.ReplaceAudio(context.Background(), "v", "a", "o"); !errors.Is(err, services.ErrRemuxFailed) {
		t.Fatalf("expected remux marker, got %v", err)
	}

	missing := &recordingExecutor{err: services.Wrap(services.ErrToolUnavailable, "", "", "ffmpeg", nil)}
	if err := ffmpeg.New("ffmpeg", missing).Extract(context.Background(), "in", "out"); !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("expected tool unavailable preserved, got %v", err)
	}
}
