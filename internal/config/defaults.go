package config

const (
	defaultStagingDir         = "~/.local/share/dubline/staging"
	defaultResultsDir         = "~/.local/share/dubline/results"
	defaultLogDir             = "~/.local/share/dubline/logs"
	defaultAPIBind            = "127.0.0.1:7510"
	defaultSourceLanguage     = "en"
	defaultTargetLanguage     = "ta"
	defaultMaxVideoMB         = 500
	defaultMinSampleRate      = 16000
	defaultMinBitrate         = 64000
	defaultMinFreeDiskGB      = 10
	defaultPrimaryEngine      = "google"
	defaultBackupEngine       = "mymemory"
	defaultPrimaryChunkSize   = 4900
	defaultBackupChunkSize    = 500
	defaultBackupChunkDelayMS = 500
	defaultMaxRetries         = 3
	defaultRetryBaseDelayMS   = 2000
	defaultRequestTimeout     = 30
	defaultGoogleBaseURL      = "https://translate.googleapis.com/translate_a/single"
	defaultMyMemoryBaseURL    = "https://api.mymemory.translated.net/get"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultWhisperModel       = "base"
	defaultTTSModel           = "tts_models/multilingual/multi-dataset/xtts_v2"
	defaultWav2LipDir         = "~/Wav2Lip"
	defaultWav2LipCheckpoint  = "checkpoints/wav2lip_gan.pth"
	defaultLipSyncQuality     = "standard"
	defaultLipSyncLow         = 5
	defaultLipSyncHigh        = 95
	defaultLipSyncIntervalMS  = 1000
	defaultCleanupSchedule    = "@hourly"
	defaultStagingMaxAgeHours = 24
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultAllowedFormats = []string{".mp4", ".avi", ".mov", ".mkv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			ResultsDir: defaultResultsDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Languages: Languages{
			Source: defaultSourceLanguage,
			Target: defaultTargetLanguage,
		},
		Validation: Validation{
			AllowedFormats: append([]string(nil), defaultAllowedFormats...),
			MaxVideoMB:     defaultMaxVideoMB,
			MinSampleRate:  defaultMinSampleRate,
			MinBitrate:     defaultMinBitrate,
			MinFreeDiskGB:  defaultMinFreeDiskGB,
		},
		Translation: Translation{
			Primary:            defaultPrimaryEngine,
			Backup:             defaultBackupEngine,
			PrimaryChunkSize:   defaultPrimaryChunkSize,
			BackupChunkSize:    defaultBackupChunkSize,
			BackupChunkDelayMS: defaultBackupChunkDelayMS,
			MaxRetries:         defaultMaxRetries,
			RetryBaseDelayMS:   defaultRetryBaseDelayMS,
			RequestTimeout:     defaultRequestTimeout,
			GoogleBaseURL:      defaultGoogleBaseURL,
			MyMemoryBaseURL:    defaultMyMemoryBaseURL,
			OpenAIBaseURL:      defaultOpenAIBaseURL,
			OpenAIModel:        defaultOpenAIModel,
		},
		Tools: Tools{
			FFmpeg:            "ffmpeg",
			FFprobe:           "ffprobe",
			Whisper:           "whisper",
			WhisperModel:      defaultWhisperModel,
			TTS:               "tts",
			TTSModel:          defaultTTSModel,
			Python:            "python3",
			Wav2LipDir:        defaultWav2LipDir,
			Wav2LipCheckpoint: defaultWav2LipCheckpoint,
		},
		LipSync: LipSync{
			Enabled:            true,
			Quality:            defaultLipSyncQuality,
			ProgressLow:        defaultLipSyncLow,
			ProgressHigh:       defaultLipSyncHigh,
			ProgressIntervalMS: defaultLipSyncIntervalMS,
		},
		Workflow: Workflow{
			WorkerCount:       2,
			QueueSize:         64,
			QueuePollInterval: 5,
			HeartbeatInterval: 15,
			HeartbeatTimeout:  120,
		},
		Staging: Staging{
			CleanupSchedule: defaultCleanupSchedule,
			MaxAgeHours:     defaultStagingMaxAgeHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
