package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile creates path (and its parents) holding size bytes of filler.
// A size <= 0 writes a single byte so the file is non-empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	chunk := bytes.Repeat([]byte{0x42}, 32*1024)
	for remaining := size; remaining > 0; {
		n := min(remaining, int64(len(chunk)))
		if _, err := f.Write(chunk[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= n
	}
}

// WriteWAV writes a short mono 16-bit PCM tone at sampleRate Hz.
func WriteWAV(t testing.TB, path string, sampleRate int) {
	t.Helper()

	if err := EncodeWAV(path, sampleRate); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// EncodeWAV is WriteWAV for callers outside the test goroutine, such as
// capability stubs invoked by workers.
func EncodeWAV(path string, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	format := &audio.Format{SampleRate: sampleRate, NumChannels: 1}
	data := make([]int, sampleRate/10)
	for i := range data {
		if (i/20)%2 == 0 {
			data[i] = 8000
		} else {
			data[i] = -8000
		}
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{Data: data, Format: format, SourceBitDepth: 16}); err != nil {
		return err
	}
	return enc.Close()
}
