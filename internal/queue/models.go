package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a dubbing job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Stage names one step of the dubbing pipeline.
type Stage string

const (
	StageAudioExtraction Stage = "audio-extraction"
	StageTranscription   Stage = "transcription"
	StageTranslation     Stage = "translation"
	StageVoiceSynthesis  Stage = "voice-synthesis"
	StageLipSync         Stage = "lip-sync"
	StageAudioRemux      Stage = "audio-remux"
)

var orderedStages = []Stage{
	StageAudioExtraction,
	StageTranscription,
	StageTranslation,
	StageVoiceSynthesis,
	StageLipSync,
	StageAudioRemux,
}

// stageWeights is the declared share of each stage in the aggregate. Equal
// weights make the aggregate the plain arithmetic mean.
var stageWeights = map[Stage]int{
	StageAudioExtraction: 1,
	StageTranscription:   1,
	StageTranslation:     1,
	StageVoiceSynthesis:  1,
	StageLipSync:         1,
	StageAudioRemux:      1,
}

// AllStages returns the pipeline stages in execution order.
func AllStages() []Stage {
	out := make([]Stage, len(orderedStages))
	copy(out, orderedStages)
	return out
}

// Weight returns the stage's contribution to aggregate progress.
func (s Stage) Weight() int {
	if w, ok := stageWeights[s]; ok {
		return w
	}
	return 0
}

// Valid reports whether s is one of the fixed pipeline stages.
func (s Stage) Valid() bool {
	_, ok := stageWeights[s]
	return ok
}

// StageStatus is the per-stage lifecycle shown to observers.
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in-progress"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusFailed     StageStatus = "failed"
)

// StageState is one row of the per-stage status map.
type StageState struct {
	Status    StageStatus
	Progress  int
	UpdatedAt time.Time
}

// ArtifactKind identifies an output reference column.
type ArtifactKind string

const (
	ArtifactExtractedAudio   ArtifactKind = "extracted_audio"
	ArtifactTranscript       ArtifactKind = "transcript"
	ArtifactTranslatedText   ArtifactKind = "translated_text"
	ArtifactSynthesizedAudio ArtifactKind = "synthesized_audio"
	ArtifactLipSyncedVideo   ArtifactKind = "lipsynced_video"
	ArtifactFinalVideo       ArtifactKind = "final_video"
)

var artifactColumns = map[ArtifactKind]string{
	ArtifactExtractedAudio:   "extracted_audio",
	ArtifactTranscript:       "transcript",
	ArtifactTranslatedText:   "translated_text",
	ArtifactSynthesizedAudio: "synthesized_audio",
	ArtifactLipSyncedVideo:   "lipsynced_video",
	ArtifactFinalVideo:       "final_video",
}

// Artifacts holds the optional output references of a job.
type Artifacts struct {
	ExtractedAudio   string
	Transcript       string
	TranslatedText   string
	SynthesizedAudio string
	LipSyncedVideo   string
	FinalVideo       string
}

// Get returns the reference recorded for kind.
func (a Artifacts) Get(kind ArtifactKind) string {
	switch kind {
	case ArtifactExtractedAudio:
		return a.ExtractedAudio
	case ArtifactTranscript:
		return a.Transcript
	case ArtifactTranslatedText:
		return a.TranslatedText
	case ArtifactSynthesizedAudio:
		return a.SynthesizedAudio
	case ArtifactLipSyncedVideo:
		return a.LipSyncedVideo
	case ArtifactFinalVideo:
		return a.FinalVideo
	default:
		return ""
	}
}

// Job is the durable record of one dubbing request.
type Job struct {
	ID            string
	OwnerID       string
	InputPath     string
	Status        Status
	Progress      int
	ErrorDetail   string
	Artifacts     Artifacts
	Stages        map[Stage]StageState
	WorkerID      string
	LastHeartbeat *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HealthSummary counts jobs by lifecycle bucket.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
