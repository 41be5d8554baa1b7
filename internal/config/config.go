package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	ResultsDir string `toml:"results_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Languages holds the fixed source/target pair as BCP-47 tags.
type Languages struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// Validation contains the input acceptance rules applied before any stage runs.
type Validation struct {
	AllowedFormats []string `toml:"allowed_formats"`
	MaxVideoMB     int      `toml:"max_video_mb"`
	MinSampleRate  int      `toml:"min_sample_rate"`
	MinBitrate     int      `toml:"min_bitrate"`
	MinFreeDiskGB  int      `toml:"min_free_disk_gb"`
}

// Translation selects the primary/backup engines and their pacing.
type Translation struct {
	Primary            string `toml:"primary"`
	Backup             string `toml:"backup"`
	PrimaryChunkSize   int    `toml:"primary_chunk_size"`
	BackupChunkSize    int    `toml:"backup_chunk_size"`
	BackupChunkDelayMS int    `toml:"backup_chunk_delay_ms"`
	MaxRetries         int    `toml:"max_retries"`
	RetryBaseDelayMS   int    `toml:"retry_base_delay_ms"`
	RequestTimeout     int    `toml:"request_timeout"`
	GoogleBaseURL      string `toml:"google_base_url"`
	MyMemoryBaseURL    string `toml:"mymemory_base_url"`
	MyMemoryEmail      string `toml:"mymemory_email"`
	OpenAIBaseURL      string `toml:"openai_base_url"`
	OpenAIAPIKey       string `toml:"openai_api_key"`
	OpenAIModel        string `toml:"openai_model"`
}

// Tools locates the external programs backing each capability.
type Tools struct {
	FFmpeg            string `toml:"ffmpeg"`
	FFprobe           string `toml:"ffprobe"`
	Whisper           string `toml:"whisper"`
	WhisperModel      string `toml:"whisper_model"`
	TTS               string `toml:"tts"`
	TTSModel          string `toml:"tts_model"`
	Python            string `toml:"python"`
	Wav2LipDir        string `toml:"wav2lip_dir"`
	Wav2LipCheckpoint string `toml:"wav2lip_checkpoint"`
}

// LipSync configures the lip synchronization stage.
type LipSync struct {
	Enabled bool `toml:"enabled"`
	// Quality is one of "fast", "standard", or "high".
	Quality            string `toml:"quality"`
	ProgressLow        int    `toml:"progress_low"`
	ProgressHigh       int    `toml:"progress_high"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
}

// Workflow contains configuration for the worker pool and daemon timing.
type Workflow struct {
	WorkerCount       int `toml:"worker_count"`
	QueueSize         int `toml:"queue_size"`
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Staging controls the periodic sweep of abandoned job workspaces.
type Staging struct {
	CleanupSchedule string `toml:"cleanup_schedule"`
	MaxAgeHours     int    `toml:"max_age_hours"`
}

// Notifications configures job outcome alerts.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL; empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dubline.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Languages     Languages     `toml:"languages"`
	Validation    Validation    `toml:"validation"`
	Translation   Translation   `toml:"translation"`
	Tools         Tools         `toml:"tools"`
	LipSync       LipSync       `toml:"lipsync"`
	Workflow      Workflow      `toml:"workflow"`
	Staging       Staging       `toml:"staging"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dubline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A .env file in the
// working directory is loaded first without overriding the environment.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("dubline.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.ResultsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite database location for the job store.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "dublined.lock")
}

// SourceLanguage returns the parsed source language tag.
func (c *Config) SourceLanguage() language.Tag {
	return language.Make(c.Languages.Source)
}

// TargetLanguage returns the parsed target language tag.
func (c *Config) TargetLanguage() language.Tag {
	return language.Make(c.Languages.Target)
}

// MaxVideoBytes converts the configured ceiling to bytes.
func (c *Config) MaxVideoBytes() int64 {
	return int64(c.Validation.MaxVideoMB) * 1024 * 1024
}

// MinFreeDiskBytes converts the configured free space floor to bytes.
func (c *Config) MinFreeDiskBytes() uint64 {
	return uint64(c.Validation.MinFreeDiskGB) * 1024 * 1024 * 1024
}

// BackupChunkDelay returns the pause between backup engine requests.
func (c *Config) BackupChunkDelay() time.Duration {
	return time.Duration(c.Translation.BackupChunkDelayMS) * time.Millisecond
}

// RetryBaseDelay returns the unit for the linear translation backoff.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Translation.RetryBaseDelayMS) * time.Millisecond
}

// TranslationTimeout bounds a single engine HTTP request.
func (c *Config) TranslationTimeout() time.Duration {
	return time.Duration(c.Translation.RequestTimeout) * time.Second
}

// StagingMaxAge is the age after which an abandoned job workspace is swept.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Staging.MaxAgeHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
