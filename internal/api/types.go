package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a dubbing job in a transport-friendly format.
type Job struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId,omitempty"`
	InputPath   string     `json:"inputPath"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Stages      []JobStage `json:"stages"`
	ErrorDetail string     `json:"errorDetail,omitempty"`
	Outputs     Outputs    `json:"outputs"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
}

// JobStage is one row of the per-stage progress list.
type JobStage struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Outputs lists the downloadable artifacts of a job.
type Outputs struct {
	FinalVideo       string `json:"finalVideo,omitempty"`
	TranslatedText   string `json:"translatedText,omitempty"`
	SynthesizedAudio string `json:"synthesizedAudio,omitempty"`
}

// CreateJobRequest is the body of POST /api/jobs. InputPath refers to a video
// already present on the daemon's filesystem.
type CreateJobRequest struct {
	InputPath string `json:"inputPath"`
	OwnerID   string `json:"ownerId,omitempty"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// ErrorResponse carries a request failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WorkflowStatus summarizes dispatcher state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	Workers    int            `json:"workers"`
	InFlight   int            `json:"inFlight"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	Tools      []ToolHealth   `json:"tools"`
}

// ToolHealth mirrors readiness reporting for external tools.
type ToolHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}
