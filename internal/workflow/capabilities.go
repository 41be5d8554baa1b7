package workflow

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"

	"dubline/internal/config"
	"dubline/internal/media/ffprobe"
	"dubline/internal/notifications"
	"dubline/internal/precheck"
	"dubline/internal/services"
	"dubline/internal/services/ffmpeg"
	"dubline/internal/services/tts"
	"dubline/internal/services/wav2lip"
	"dubline/internal/services/whisper"
	"dubline/internal/translation"
)

// AudioExtractor pulls the audio track out of a video.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// Transcriber turns speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, lang language.Tag) (string, error)
}

// Translator converts the transcript into the target language.
type Translator interface {
	Translate(ctx context.Context, text string, maxRetries int) (string, error)
}

// VoiceSynthesizer speaks text in the voice of referenceAudio.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text, referenceAudio string, lang language.Tag, outPath string) error
}

// LipSyncEngine re-times the speaker's lips to new audio. progress receives
// fractions in [0,1].
type LipSyncEngine interface {
	Sync(ctx context.Context, req services.LipSyncRequest, progress func(float64)) error
}

// Remuxer swaps the audio track of a video.
type Remuxer interface {
	ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error
}

// Capabilities bundles the long-lived service handles a pipeline uses. They
// are built once per process and shared by every worker.
type Capabilities struct {
	Extractor   AudioExtractor
	Transcriber Transcriber
	Translator  Translator
	Synthesizer VoiceSynthesizer
	// LipSync may be nil, in which case the stage passes the source video
	// through unchanged.
	LipSync LipSyncEngine
	Remuxer Remuxer
	Prober  precheck.AudioProber
	// Notifier may be nil to skip job outcome alerts.
	Notifier notifications.Service
}

// DefaultCapabilities wires the CLI-backed implementations described by cfg.
func DefaultCapabilities(cfg *config.Config, logger *slog.Logger) (Capabilities, error) {
	translator, err := translation.NewFromConfig(cfg, logger)
	if err != nil {
		return Capabilities{}, err
	}
	media := ffmpeg.New(cfg.Tools.FFmpeg, nil)
	caps := Capabilities{
		Extractor:   media,
		Transcriber: whisper.New(cfg.Tools.Whisper, cfg.Tools.WhisperModel, nil, logger),
		Translator:  translator,
		Synthesizer: tts.New(cfg.Tools.TTS, cfg.Tools.TTSModel, nil),
		Remuxer:     media,
		Prober:      ffprobe.New(cfg.Tools.FFprobe),
		Notifier:    notifications.NewService(cfg),
	}
	if cfg.LipSync.Enabled {
		caps.LipSync = wav2lip.New(wav2lip.Options{
			Python:     cfg.Tools.Python,
			Dir:        cfg.Tools.Wav2LipDir,
			Checkpoint: cfg.Tools.Wav2LipCheckpoint,
		}, nil, logger)
	}
	return caps, nil
}
