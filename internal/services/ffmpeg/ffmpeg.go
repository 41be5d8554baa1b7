// Package ffmpeg extracts the audio track of a video and swaps a video's
// audio track for the dubbed one by running the ffmpeg binary.
package ffmpeg

import (
	"context"
	"strings"

	"dubline/internal/services"
)

// Client runs ffmpeg.
type Client struct {
	binary   string
	executor services.Executor
}

// New returns a client for binary. A nil executor uses real processes.
func New(binary string, executor services.Executor) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if executor == nil {
		executor = services.CommandExecutor{}
	}
	return &Client{binary: binary, executor: executor}
}

// Extract writes the first audio stream of videoPath to audioPath as WAV at
// the best variable quality.
func (c *Client) Extract(ctx context.Context, videoPath, audioPath string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-q:a", "0",
		"-map", "a:0",
		"-vn",
		audioPath,
	}
	if err := c.executor.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExtractionFailed, "ffmpeg", "extract audio", videoPath, err)
	}
	return nil
}

// ReplaceAudio copies the video stream of videoPath and muxes audioPath as
// its only audio track. The output ends with the shorter of the two inputs.
func (c *Client) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outPath,
	}
	if err := c.executor.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrRemuxFailed, "ffmpeg", "replace audio", videoPath, err)
	}
	return nil
}
