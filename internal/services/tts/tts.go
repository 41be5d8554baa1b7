// Package tts synthesizes cloned-voice speech with the Coqui TTS command line
// tool using the multilingual XTTS model.
package tts

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"

	"dubline/internal/media/wavcheck"
	"dubline/internal/services"
)

// DefaultModel is the multilingual voice-cloning model.
const DefaultModel = "tts_models/multilingual/multi-dataset/xtts_v2"

// Client runs the tts binary.
type Client struct {
	binary   string
	model    string
	executor services.Executor
}

// New returns a synthesizer client.
func New(binary, model string, executor services.Executor) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "tts"
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if executor == nil {
		executor = services.CommandExecutor{}
	}
	return &Client{binary: binary, model: model, executor: executor}
}

// Synthesize speaks text in lang with the voice of referenceAudio and writes
// a WAV to outPath. The reference must be a readable WAV.
func (c *Client) Synthesize(ctx context.Context, text, referenceAudio string, lang language.Tag, outPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrSynthesisFailed, "tts", "synthesize", "", errors.New("empty text"))
	}
	if err := wavcheck.Validate(referenceAudio); err != nil {
		return services.Wrap(services.ErrSynthesisFailed, "tts", "check voice reference", referenceAudio, err)
	}
	base, _ := lang.Base()
	args := []string{
		"--model_name", c.model,
		"--text", text,
		"--speaker_wav", referenceAudio,
		"--language_idx", base.String(),
		"--out_path", outPath,
	}
	if err := c.executor.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrSynthesisFailed, "tts", "run", "", err)
	}
	return nil
}
