// Package whisper transcribes audio with the openai-whisper command line
// tool. The transcript is written as plain text next to a scratch directory
// and returned normalized.
package whisper

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"dubline/internal/logging"
	"dubline/internal/services"
	"dubline/internal/textutil"
)

// DefaultModel matches the small multilingual checkpoint whisper ships with.
const DefaultModel = "base"

// Client runs whisper.
type Client struct {
	binary   string
	model    string
	executor services.Executor
	logger   *slog.Logger
}

// New returns a whisper client.
func New(binary, model string, executor services.Executor, logger *slog.Logger) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "whisper"
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if executor == nil {
		executor = services.CommandExecutor{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{binary: binary, model: model, executor: executor, logger: logger}
}

// Transcribe converts speech in audioPath to text. lang pins the spoken
// language; language.Und lets whisper detect it.
func (c *Client) Transcribe(ctx context.Context, audioPath string, lang language.Tag) (string, error) {
	outDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisper-")
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "whisper", "prepare", "scratch dir", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", c.model,
		"--output_format", "txt",
		"--output_dir", outDir,
		"--fp16", "False",
		"--verbose", "False",
	}
	if lang != language.Und {
		base, _ := lang.Base()
		args = append(args, "--language", base.String())
	}
	if err := c.executor.Run(ctx, c.binary, args, nil); err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "whisper", "run", audioPath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	raw, err := os.ReadFile(filepath.Join(outDir, stem+".txt"))
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "whisper", "read transcript", stem+".txt", err)
	}
	text := textutil.NormalizeTranscript(string(raw))
	if text == "" {
		return "", services.Wrap(services.ErrTranscriptionFailed, "whisper", "read transcript", "no speech recognized", errors.New("empty transcript"))
	}

	if lang != language.Und {
		c.warnOnLanguageMismatch(ctx, text, lang)
	}
	return text, nil
}

func (c *Client) warnOnLanguageMismatch(ctx context.Context, text string, expected language.Tag) {
	detected := textutil.DetectLanguage(text)
	if !detected.Reliable || detected.Tag == language.Und || textutil.SameBaseLanguage(detected.Tag, expected) {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, c.logger),
		"transcript language differs from configured source",
		"language_mismatch",
		logging.String("expected", expected.String()),
		logging.String("detected", detected.Tag.String()),
		logging.Float64("confidence", detected.Confidence),
		logging.String(logging.FieldErrorHint, "check languages.source in config"),
	)
}
