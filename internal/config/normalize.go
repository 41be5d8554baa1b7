package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguages()
	c.normalizeValidation()
	c.normalizeTranslation()
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeLipSync()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeLanguages() {
	c.Languages.Source = strings.TrimSpace(c.Languages.Source)
	if c.Languages.Source == "" {
		c.Languages.Source = defaultSourceLanguage
	}
	c.Languages.Target = strings.TrimSpace(c.Languages.Target)
	if c.Languages.Target == "" {
		c.Languages.Target = defaultTargetLanguage
	}
}

func (c *Config) normalizeValidation() {
	formats := make([]string, 0, len(c.Validation.AllowedFormats))
	seen := make(map[string]struct{}, len(c.Validation.AllowedFormats))
	for _, format := range c.Validation.AllowedFormats {
		normalized := strings.ToLower(strings.TrimSpace(format))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		formats = append(formats, normalized)
	}
	if len(formats) == 0 {
		formats = append(formats, defaultAllowedFormats...)
	}
	c.Validation.AllowedFormats = formats
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	t.Primary = strings.ToLower(strings.TrimSpace(t.Primary))
	t.Backup = strings.ToLower(strings.TrimSpace(t.Backup))
	t.GoogleBaseURL = strings.TrimSpace(t.GoogleBaseURL)
	if t.GoogleBaseURL == "" {
		t.GoogleBaseURL = defaultGoogleBaseURL
	}
	t.MyMemoryBaseURL = strings.TrimSpace(t.MyMemoryBaseURL)
	if t.MyMemoryBaseURL == "" {
		t.MyMemoryBaseURL = defaultMyMemoryBaseURL
	}
	t.MyMemoryEmail = strings.TrimSpace(t.MyMemoryEmail)
	t.OpenAIBaseURL = strings.TrimSpace(t.OpenAIBaseURL)
	if t.OpenAIBaseURL == "" {
		t.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	t.OpenAIModel = strings.TrimSpace(t.OpenAIModel)
	if t.OpenAIModel == "" {
		t.OpenAIModel = defaultOpenAIModel
	}
	t.OpenAIAPIKey = strings.TrimSpace(t.OpenAIAPIKey)
	if t.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("DUBLINE_OPENAI_API_KEY"); ok {
			t.OpenAIAPIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			t.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	if t.MaxRetries <= 0 {
		t.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) normalizeTools() error {
	t := &c.Tools
	for _, field := range []*string{&t.FFmpeg, &t.FFprobe, &t.Whisper, &t.TTS, &t.Python, &t.WhisperModel, &t.TTSModel, &t.Wav2LipCheckpoint} {
		*field = strings.TrimSpace(*field)
	}
	var err error
	if t.Wav2LipDir, err = expandPath(strings.TrimSpace(t.Wav2LipDir)); err != nil {
		return fmt.Errorf("tools.wav2lip_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLipSync() {
	c.LipSync.Quality = strings.ToLower(strings.TrimSpace(c.LipSync.Quality))
	if c.LipSync.Quality == "" {
		c.LipSync.Quality = defaultLipSyncQuality
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("DUBLINE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
