package wavcheck_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dubline/internal/media/wavcheck"
	"dubline/internal/testsupport"
)

func TestValidateAcceptsPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.wav")
	testsupport.WriteWAV(t, path, 22050)

	if err := wavcheck.Validate(path); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	info, err := wavcheck.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 || info.BitDepth != 16 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.wav")
	if err := os.WriteFile(path, []byte("definitely not a riff header"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := wavcheck.Validate(path); !errors.Is(err, wavcheck.ErrInvalidWAV) {
		t.Fatalf("expected ErrInvalidWAV, got %v", err)
	}
	if err := wavcheck.Validate(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
