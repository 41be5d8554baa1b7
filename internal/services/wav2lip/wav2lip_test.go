package wav2lip

import (
	"context"
	"errors"
	"slices"
	"testing"

	"dubline/internal/services"
)

type scriptedExecutor struct {
	lines  []string
	err    error
	binary string
	args   []string
}

func (s *scriptedExecutor) Run(_ context.Context, binary string, args []string, onLine func(string)) error {
	s.binary = binary
	s.args = args
	for _, line := range s.lines {
		onLine(line)
	}
	return s.err
}

func TestSyncReportsMonotoneProgress(t *testing.T) {
	exec := &scriptedExecutor{lines: []string{
		"Using cuda for inference.",
		"Reading video frames...",
		" 50%|█████     | 5/10 [00:01<00:01,  4.00it/s]",
		"100%|██████████| 10/10 [00:02<00:00,  4.00it/s]",
		"  0%|          | 0/40 [00:00<?, ?it/s]",
		" 25%|██▌       | 10/40 [00:05<00:15,  2.00it/s]",
		" 25%|██▌       | 10/40 [00:05<00:15,  2.00it/s]",
		"100%|██████████| 40/40 [00:20<00:00,  2.00it/s]",
	}}
	client := New(Options{Dir: "/opt/Wav2Lip", Checkpoint: "checkpoints/wav2lip_gan.pth"}, exec, nil)

	var got []float64
	err := client.Sync(context.Background(), services.LipSyncRequest{
		Video: "in.mp4", Audio: "dub.wav", Output: "out.mp4", Quality: "fast",
	}, func(f float64) { got = append(got, f) })
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := []float64{0.25, 0.5, 0.625, 1, 1}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected progress %v, want %v", got, want)
	}
	if exec.binary != "python3" || exec.args[0] != "/opt/Wav2Lip/inference.py" {
		t.Fatalf("unexpected command: %s %v", exec.binary, exec.args)
	}
	if i := slices.Index(exec.args, "--checkpoint_path"); exec.args[i+1] != "/opt/Wav2Lip/checkpoints/wav2lip_gan.pth" {
		t.Fatalf("checkpoint not resolved against dir: %v", exec.args)
	}
	if !slices.Contains(exec.args, "--resize_factor") {
		t.Fatalf("expected fast profile args, got %v", exec.args)
	}
}

func TestSyncFailureMarker(t *testing.T) {
	exec := &scriptedExecutor{err: errors.New("Face not detected!")}
	err := New(Options{}, exec, nil).Sync(context.Background(), services.LipSyncRequest{Video: "v"}, nil)
	if !errors.Is(err, services.ErrSyncFailed) {
		t.Fatalf("expected sync marker, got %v", err)
	}
}

func TestProgressParserIgnoresNoise(t *testing.T) {
	p := newProgressParser(1)
	for _, line := range []string{"", "loading checkpoint", "150%|bad"} {
		if _, ok := p.Feed(line); ok {
			t.Fatalf("unexpected progress from %q", line)
		}
	}
	if f, ok := p.Feed("40%|████"); !ok || f != 0.4 {
		t.Fatalf("expected 0.4, got %v %v", f, ok)
	}
}
