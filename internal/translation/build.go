package translation

import (
	"fmt"
	"log/slog"

	"dubline/internal/config"
	"dubline/internal/translation/google"
	"dubline/internal/translation/mymemory"
	"dubline/internal/translation/openai"
)

// NewFromConfig builds the configured primary and backup engines and wraps
// them in a Service.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	primary, err := NewEngine(cfg, cfg.Translation.Primary)
	if err != nil {
		return nil, err
	}
	var backup Engine
	if cfg.Translation.Backup != "" {
		if backup, err = NewEngine(cfg, cfg.Translation.Backup); err != nil {
			return nil, err
		}
	}
	return NewService(primary, backup, Options{
		Source:           cfg.SourceLanguage(),
		Target:           cfg.TargetLanguage(),
		PrimaryChunkSize: cfg.Translation.PrimaryChunkSize,
		BackupChunkSize:  cfg.Translation.BackupChunkSize,
		BackupChunkDelay: cfg.BackupChunkDelay(),
		MaxRetries:       cfg.Translation.MaxRetries,
		RetryBaseDelay:   cfg.RetryBaseDelay(),
		Logger:           logger,
	}), nil
}

// NewEngine constructs the engine registered under name.
func NewEngine(cfg *config.Config, name string) (Engine, error) {
	t := cfg.Translation
	switch name {
	case "google":
		return google.New(t.GoogleBaseURL, cfg.TranslationTimeout()), nil
	case "mymemory":
		return mymemory.New(t.MyMemoryBaseURL, t.MyMemoryEmail, cfg.TranslationTimeout()), nil
	case "openai":
		return openai.New(openai.Config{APIKey: t.OpenAIAPIKey, BaseURL: t.OpenAIBaseURL, Model: t.OpenAIModel})
	default:
		return nil, fmt.Errorf("unknown translation engine %q", name)
	}
}
