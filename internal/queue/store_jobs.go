package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Create inserts a new pending job for inputPath. ownerID may be empty for
// anonymous submissions.
func (s *Store) Create(ctx context.Context, inputPath, ownerID string) (*Job, error) {
	inputPath = strings.TrimSpace(inputPath)
	if inputPath == "" {
		return nil, errors.New("input path required")
	}
	id := uuid.NewString()
	timestamp := nowString()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, owner_id, input_path, status, progress, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?)`,
		id,
		nullableString(strings.TrimSpace(ownerID)),
		inputPath,
		StatusPending,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a job and its stage rows. A missing job yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if err := s.attachStages(ctx, map[string]*Job{job.ID: job}); err != nil {
		return nil, err
	}
	return job, nil
}

// List returns jobs ordered by creation time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(jobs) == 0 {
		return jobs, nil
	}
	byID := make(map[string]*Job, len(jobs))
	for _, job := range jobs {
		byID[job.ID] = job
	}
	if err := s.attachStages(ctx, byID); err != nil {
		return nil, err
	}
	return jobs, nil
}

// PendingIDs returns the ids of jobs waiting for a worker, oldest first.
func (s *Store) PendingIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("pending ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) attachStages(ctx context.Context, jobs map[string]*Job) error {
	ids := make([]any, 0, len(jobs))
	for id := range jobs {
		ids = append(ids, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, stage, status, progress, updated_at FROM job_stages WHERE job_id IN (`+makePlaceholders(len(ids))+`)`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			jobID, stage, status, updatedRaw string
			progress                         int
		)
		if err := rows.Scan(&jobID, &stage, &status, &progress, &updatedRaw); err != nil {
			return fmt.Errorf("scan stage: %w", err)
		}
		job, ok := jobs[jobID]
		if !ok {
			continue
		}
		state := StageState{Status: StageStatus(status), Progress: progress}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			state.UpdatedAt = updated
		}
		job.Stages[Stage(stage)] = state
	}
	return rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{
		Pending:    stats[StatusPending],
		Processing: stats[StatusProcessing],
		Completed:  stats[StatusCompleted],
		Failed:     stats[StatusFailed],
	}
	for _, count := range stats {
		health.Total += count
	}
	return health, nil
}
