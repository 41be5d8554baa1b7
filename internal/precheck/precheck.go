// Package precheck validates job inputs before any capability runs: the
// container extension allow-list, the size ceiling, and the audio quality
// floors measured with ffprobe.
package precheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"dubline/internal/config"
	"dubline/internal/media/ffprobe"
	"dubline/internal/services"
)

// AudioProber measures the first audio stream of a media file.
type AudioProber interface {
	AudioStream(ctx context.Context, path string) (ffprobe.AudioProperties, error)
}

// Limits are the thresholds enforced by a Checker.
type Limits struct {
	AllowedFormats []string
	MaxVideoBytes  int64
	MinSampleRate  int
	MinBitrate     int64
}

// LimitsFromConfig derives limits from the validation section.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		AllowedFormats: append([]string(nil), cfg.Validation.AllowedFormats...),
		MaxVideoBytes:  cfg.MaxVideoBytes(),
		MinSampleRate:  cfg.Validation.MinSampleRate,
		MinBitrate:     int64(cfg.Validation.MinBitrate),
	}
}

// Checker runs precondition checks.
type Checker struct {
	limits Limits
	prober AudioProber
}

// New builds a checker. prober may be nil when audio floors are not needed.
func New(limits Limits, prober AudioProber) *Checker {
	return &Checker{limits: limits, prober: prober}
}

// CheckVideo rejects inputs with a disallowed extension, missing files and
// files above the size ceiling.
func (c *Checker) CheckVideo(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(c.limits.AllowedFormats, ext) {
		return fail("check format", fmt.Sprintf("unsupported video format %q (allowed: %s)", ext, strings.Join(c.limits.AllowedFormats, ", ")), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fail("check video", "input video unavailable", err)
	}
	if !info.Mode().IsRegular() {
		return fail("check video", "input video is not a regular file", nil)
	}
	if c.limits.MaxVideoBytes > 0 && info.Size() > c.limits.MaxVideoBytes {
		return fail("check size", fmt.Sprintf("video is %d bytes, limit is %d bytes", info.Size(), c.limits.MaxVideoBytes), nil)
	}
	return nil
}

// CheckAudio enforces the sample-rate and bitrate floors on audioPath.
func (c *Checker) CheckAudio(ctx context.Context, audioPath string) error {
	if c.prober == nil {
		return nil
	}
	props, err := c.prober.AudioStream(ctx, audioPath)
	if err != nil {
		return fail("check audio", "unable to probe audio", err)
	}
	if c.limits.MinSampleRate > 0 && props.SampleRate < c.limits.MinSampleRate {
		return fail("check audio", fmt.Sprintf("sample rate %d Hz below minimum %d Hz", props.SampleRate, c.limits.MinSampleRate), nil)
	}
	if c.limits.MinBitrate > 0 && props.BitRate < c.limits.MinBitrate {
		return fail("check audio", fmt.Sprintf("bitrate %d bps below minimum %d bps", props.BitRate, c.limits.MinBitrate), nil)
	}
	return nil
}

func fail(op, msg string, err error) error {
	return services.Wrap(services.ErrPreconditionFailed, "precheck", op, msg, err)
}
