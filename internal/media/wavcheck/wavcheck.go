// Package wavcheck validates WAV files produced by voice synthesis.
package wavcheck

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV marks a file that is not a usable PCM WAV.
var ErrInvalidWAV = errors.New("invalid wav")

// Info summarizes a WAV header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Read parses the header of the WAV at path.
func Read(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("%w: %s: %w", ErrInvalidWAV, path, err)
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if bytesPerSecond := info.SampleRate * info.Channels * info.BitDepth / 8; bytesPerSecond > 0 {
		info.Duration = time.Duration(float64(dec.PCMLen()) / float64(bytesPerSecond) * float64(time.Second))
	}
	return info, nil
}

// Validate checks that path is a WAV with at least one channel and a
// non-zero duration.
func Validate(path string) error {
	info, err := Read(path)
	if err != nil {
		return err
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return fmt.Errorf("%w: %s: missing format", ErrInvalidWAV, path)
	}
	if info.Duration <= 0 {
		return fmt.Errorf("%w: %s: no samples", ErrInvalidWAV, path)
	}
	return nil
}
