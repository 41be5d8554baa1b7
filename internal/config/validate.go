package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

var knownEngines = map[string]struct{}{
	"google":   {},
	"mymemory": {},
	"openai":   {},
}

var knownQualities = map[string]struct{}{
	"fast":     {},
	"standard": {},
	"high":     {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateLanguages,
		c.validateValidation,
		c.validateTranslation,
		c.validateLipSync,
		c.validateWorkflow,
		c.validateStaging,
		c.validateNotifications,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLanguages() error {
	source, err := language.Parse(c.Languages.Source)
	if err != nil {
		return fmt.Errorf("languages.source: %w", err)
	}
	target, err := language.Parse(c.Languages.Target)
	if err != nil {
		return fmt.Errorf("languages.target: %w", err)
	}
	if source == target {
		return errors.New("languages.source and languages.target must differ")
	}
	return nil
}

func (c *Config) validateValidation() error {
	return ensurePositiveMap(map[string]int{
		"validation.max_video_mb":    c.Validation.MaxVideoMB,
		"validation.min_sample_rate": c.Validation.MinSampleRate,
		"validation.min_bitrate":     c.Validation.MinBitrate,
	})
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if _, ok := knownEngines[t.Primary]; !ok {
		return fmt.Errorf("translation.primary: unsupported engine %q", t.Primary)
	}
	if t.Backup != "" {
		if _, ok := knownEngines[t.Backup]; !ok {
			return fmt.Errorf("translation.backup: unsupported engine %q", t.Backup)
		}
		if t.Backup == t.Primary {
			return errors.New("translation.backup must differ from translation.primary")
		}
	}
	if (t.Primary == "openai" || t.Backup == "openai") && t.OpenAIAPIKey == "" {
		return errors.New("translation.openai_api_key is required when the openai engine is selected (or set DUBLINE_OPENAI_API_KEY)")
	}
	if err := ensurePositiveMap(map[string]int{
		"translation.primary_chunk_size": t.PrimaryChunkSize,
		"translation.backup_chunk_size":  t.BackupChunkSize,
		"translation.request_timeout":    t.RequestTimeout,
	}); err != nil {
		return err
	}
	if t.BackupChunkDelayMS < 0 {
		return errors.New("translation.backup_chunk_delay_ms must not be negative")
	}
	if t.RetryBaseDelayMS < 0 {
		return errors.New("translation.retry_base_delay_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLipSync() error {
	l := c.LipSync
	if _, ok := knownQualities[l.Quality]; !ok {
		return fmt.Errorf("lipsync.quality: unsupported value %q", l.Quality)
	}
	if l.ProgressLow < 0 || l.ProgressHigh > 100 || l.ProgressLow >= l.ProgressHigh {
		return errors.New("lipsync.progress_low and lipsync.progress_high must satisfy 0 <= low < high <= 100")
	}
	if l.ProgressIntervalMS < 0 {
		return errors.New("lipsync.progress_interval_ms must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.worker_count":        c.Workflow.WorkerCount,
		"workflow.queue_size":          c.Workflow.QueueSize,
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.heartbeat_interval":  c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":   c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateStaging() error {
	if strings.TrimSpace(c.Staging.CleanupSchedule) != "" {
		if _, err := cron.ParseStandard(c.Staging.CleanupSchedule); err != nil {
			return fmt.Errorf("staging.cleanup_schedule: %w", err)
		}
	}
	if c.Staging.MaxAgeHours <= 0 {
		return errors.New("staging.max_age_hours must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: %q is not an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
