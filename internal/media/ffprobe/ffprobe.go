package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dubline/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// AudioProperties are the measured properties of the first audio stream.
type AudioProperties struct {
	SampleRate int
	BitRate    int64
}

// ErrNoAudioStream is returned when the probed file carries no audio.
var ErrNoAudioStream = errors.New("no audio stream")

// Prober runs ffprobe.
type Prober struct {
	Binary   string
	Executor services.Executor
}

// New returns a prober for binary using the real process executor.
func New(binary string) *Prober {
	return &Prober{Binary: binary, Executor: services.CommandExecutor{}}
}

// Inspect executes ffprobe against path and decodes the stream and format
// listing.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	return p.probe(ctx, path, "-show_format", "-show_streams")
}

// AudioStream probes only the first audio stream and returns its sample rate
// and bitrate. The container bitrate is used when the stream reports none.
func (p *Prober) AudioStream(ctx context.Context, path string) (AudioProperties, error) {
	result, err := p.probe(ctx, path, "-select_streams", "a:0", "-show_entries", "stream=codec_type,sample_rate,bit_rate:format=bit_rate")
	if err != nil {
		return AudioProperties{}, err
	}
	if len(result.Streams) == 0 {
		return AudioProperties{}, fmt.Errorf("ffprobe %s: %w", path, ErrNoAudioStream)
	}
	stream := result.Streams[0]
	props := AudioProperties{
		SampleRate: int(positive(parseFloat(stream.SampleRate))),
		BitRate:    int64(positive(parseFloat(stream.BitRate))),
	}
	if props.BitRate == 0 {
		props.BitRate = result.BitRate()
	}
	return props, nil
}

func (p *Prober) probe(ctx context.Context, path string, selection ...string) (Result, error) {
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}
	executor := p.Executor
	if executor == nil {
		executor = services.CommandExecutor{}
	}

	args := append([]string{"-v", "error", "-hide_banner"}, selection...)
	args = append(args, "-of", "json", "--", path)
	var out strings.Builder
	if err := executor.Run(ctx, binary, args, func(line string) {
		out.WriteString(line)
		out.WriteByte('\n')
	}); err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(out.String()), &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countType("audio")
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countType("video")
}

func (r Result) countType(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	return int64(positive(parseFloat(r.Format.BitRate)))
}

func positive(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
