package api

import (
	"dubline/internal/fileutil"
	"dubline/internal/queue"
	"dubline/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:          job.ID,
		OwnerID:     job.OwnerID,
		InputPath:   job.InputPath,
		Status:      string(job.Status),
		Progress:    job.Progress,
		ErrorDetail: job.ErrorDetail,
		Outputs: Outputs{
			FinalVideo:       resolved(job.Artifacts.FinalVideo),
			TranslatedText:   resolved(job.Artifacts.TranslatedText),
			SynthesizedAudio: resolved(job.Artifacts.SynthesizedAudio),
		},
		Stages: make([]JobStage, 0, len(job.Stages)),
	}
	for _, st := range queue.AllStages() {
		state, ok := job.Stages[st]
		if !ok {
			continue
		}
		row := JobStage{Name: string(st), Status: string(state.Status), Progress: state.Progress}
		if !state.UpdatedAt.IsZero() {
			row.UpdatedAt = state.UpdatedAt.UTC().Format(dateTimeFormat)
		}
		dto.Stages = append(dto.Stages, row)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a dispatcher summary to its API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	tools := make([]ToolHealth, 0, len(summary.Health))
	for _, h := range summary.Health {
		tools = append(tools, ToolHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return WorkflowStatus{
		Running:    summary.Running,
		Workers:    summary.Workers,
		InFlight:   summary.InFlight,
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
		Tools:      tools,
	}
}

// MergeQueueStats produces a string-keyed representation of queue stats with
// every status present.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

func resolved(path string) string {
	if fileutil.Exists(path) {
		return path
	}
	return ""
}
