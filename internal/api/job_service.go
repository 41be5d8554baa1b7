package api

import (
	"context"
	"errors"
	"strings"

	"dubline/internal/queue"
	"dubline/internal/workflow"
)

// ErrInvalidRequest marks caller mistakes such as a missing input path.
var ErrInvalidRequest = errors.New("invalid request")

// JobStore abstracts the persistence operations the service needs.
type JobStore interface {
	Create(ctx context.Context, inputPath, ownerID string) (*queue.Job, error)
	Get(ctx context.Context, id string) (*queue.Job, error)
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
}

// Submitter hands a job to the dispatcher.
type Submitter interface {
	Submit(ctx context.Context, jobID string) error
}

// JobService exposes job queries and submission returning API DTOs.
type JobService struct {
	store     JobStore
	submitter Submitter
}

// NewJobService constructs a JobService. submitter may be nil, in which case
// created jobs wait for a daemon to poll them.
func NewJobService(store JobStore, submitter Submitter) *JobService {
	return &JobService{store: store, submitter: submitter}
}

// Describe fetches a single job. A missing job yields (nil, nil).
func (s *JobService) Describe(ctx context.Context, id string) (*Job, error) {
	job, err := s.store.Get(ctx, strings.TrimSpace(id))
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// List returns jobs filtered by status.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Create records a pending job and submits it. A saturated dispatcher is not
// an error: the job stays pending and is picked up by the next poll.
func (s *JobService) Create(ctx context.Context, req CreateJobRequest) (*Job, error) {
	input := strings.TrimSpace(req.InputPath)
	if input == "" {
		return nil, errors.Join(ErrInvalidRequest, errors.New("inputPath is required"))
	}
	job, err := s.store.Create(ctx, input, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if s.submitter != nil {
		if err := s.submitter.Submit(ctx, job.ID); err != nil && !errors.Is(err, workflow.ErrQueueFull) {
			return nil, err
		}
	}
	dto := FromJob(job)
	return &dto, nil
}

// ParseStatuses converts user-supplied status names, rejecting unknown ones.
func ParseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := queue.ParseStatus(part)
			if !ok {
				return nil, errors.Join(ErrInvalidRequest, errors.New("unknown status "+strings.TrimSpace(part)))
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}
