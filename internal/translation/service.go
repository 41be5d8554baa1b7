package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"dubline/internal/logging"
	"dubline/internal/services"
	"dubline/internal/textutil"
)

const defaultMaxRetries = 3

// Options tune a Service.
type Options struct {
	Source           language.Tag
	Target           language.Tag
	PrimaryChunkSize int
	BackupChunkSize  int
	BackupChunkDelay time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	Logger           *slog.Logger
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Service translates text with fallback and retry.
type Service struct {
	primary Engine
	backup  Engine
	opts    Options
}

// NewService builds a service. backup may be nil.
func NewService(primary, backup Engine, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	return &Service{primary: primary, backup: backup, opts: opts}
}

// Translate returns the translation of text. maxRetries <= 0 uses the
// configured default. Blank text returns "" without calling any engine.
func (s *Service) Translate(ctx context.Context, text string, maxRetries int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if maxRetries <= 0 {
		maxRetries = s.opts.MaxRetries
	}
	logger := logging.WithContext(ctx, s.opts.Logger)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if s.primary != nil {
			out, err := s.run(ctx, s.primary, text, s.opts.PrimaryChunkSize, 0)
			if err == nil {
				return out, nil
			}
			lastErr = err
			logging.WarnWithContext(logger, "primary translation engine failed", "translation_engine_failure",
				logging.String("engine", s.primary.Name()),
				logging.Int("attempt", attempt),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "falling back to backup engine"),
			)
		}
		if s.backup != nil {
			out, err := s.run(ctx, s.backup, text, s.opts.BackupChunkSize, s.opts.BackupChunkDelay)
			if err == nil {
				logger.Info("translated with backup engine",
					logging.String("engine", s.backup.Name()),
					logging.Int("attempt", attempt),
				)
				return out, nil
			}
			lastErr = err
			logging.WarnWithContext(logger, "backup translation engine failed", "translation_engine_failure",
				logging.String("engine", s.backup.Name()),
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if attempt < maxRetries {
			wait := time.Duration(attempt) * s.opts.RetryBaseDelay
			logger.Info("retrying translation",
				logging.Int("attempt", attempt),
				logging.Duration("wait", wait),
			)
			if err := s.opts.Sleep(ctx, wait); err != nil {
				lastErr = err
				break
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no translation engine configured")
	}
	return "", services.Wrap(services.ErrTranslationUnavailable, "translation", "translate",
		fmt.Sprintf("all engines failed after %d attempts", maxRetries), lastErr)
}

// run translates every chunk with engine, waiting delay between chunks.
func (s *Service) run(ctx context.Context, engine Engine, text string, chunkSize int, delay time.Duration) (string, error) {
	maxBytes := 0
	if limited, ok := engine.(ByteLimited); ok {
		maxBytes = limited.MaxBytes()
	}
	chunks := textutil.ChunkBytes(text, chunkSize, maxBytes)
	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && delay > 0 {
			if err := s.opts.Sleep(ctx, delay); err != nil {
				return "", err
			}
		}
		out, err := engine.Translate(ctx, chunk, s.opts.Source, s.opts.Target)
		if err != nil {
			return "", fmt.Errorf("%s chunk %d/%d: %w", engine.Name(), i+1, len(chunks), err)
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", fmt.Errorf("%s chunk %d/%d: empty translation", engine.Name(), i+1, len(chunks))
		}
		translated = append(translated, out)
	}
	return textutil.JoinChunks(translated), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
