package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTransition is returned when a guarded update finds the job in a
// state that does not permit the requested change (or the job is missing).
var ErrInvalidTransition = errors.New("invalid job transition")

func requireOneRow(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s job %s", ErrInvalidTransition, op, id)
	}
	return nil
}

// Claim moves a pending job to processing on behalf of workerID. Exactly one
// caller can win the claim for a given job.
func (s *Store) Claim(ctx context.Context, id, workerID string) error {
	now := nowString()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, worker_id = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusProcessing, nullableString(workerID), now, now, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}
	return requireOneRow(res, "claim", id)
}

// Complete marks a processing job completed with progress pinned to 100 and
// records the final artifact reference.
func (s *Store) Complete(ctx context.Context, id, finalVideo string) error {
	if strings.TrimSpace(finalVideo) == "" {
		return errors.New("complete job: final artifact reference required")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, progress = 100, final_video = COALESCE(final_video, ?),
             error_detail = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted, finalVideo, nowString(), id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return requireOneRow(res, "complete", id)
}

// Fail moves a pending or processing job to failed. detail must be non-empty.
func (s *Store) Fail(ctx context.Context, id, detail string) error {
	return s.fail(ctx, "fail", id, detail, StatusPending, StatusProcessing)
}

// FailPending moves a job to failed only while it is still pending. Input
// rejections use it so a job claimed concurrently by another worker is left
// alone.
func (s *Store) FailPending(ctx context.Context, id, detail string) error {
	return s.fail(ctx, "reject", id, detail, StatusPending)
}

func (s *Store) fail(ctx context.Context, op, id, detail string, from ...Status) error {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return fmt.Errorf("%s job: error detail required", op)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	args := []any{StatusFailed, detail, nowString(), id}
	for _, status := range from {
		args = append(args, status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_detail = ?, updated_at = ?
         WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("%s job: %w", op, err)
	}
	return requireOneRow(res, op, id)
}

// RegisterStages inserts pending rows for stages not yet known for the job.
func (s *Store) RegisterStages(ctx context.Context, id string, stages ...Stage) error {
	now := nowString()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stage := range stages {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO job_stages (job_id, stage, status, progress, updated_at) VALUES (?, ?, ?, 0, ?)`,
				id, stage, StageStatusPending, now,
			); err != nil {
				return fmt.Errorf("register stage %s: %w", stage, err)
			}
		}
		return nil
	})
}

// SaveProgress writes one stage row and the aggregate progress in a single
// transaction. The aggregate never decreases and is only written while the
// job is processing.
func (s *Store) SaveProgress(ctx context.Context, id string, stage Stage, state StageState, aggregate int) error {
	if aggregate < 0 || aggregate > 100 {
		return fmt.Errorf("save progress: aggregate %d out of range", aggregate)
	}
	now := nowString()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET progress = MAX(progress, ?), updated_at = ? WHERE id = ? AND status = ?`,
			aggregate, now, id, StatusProcessing,
		)
		if err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		if err := requireOneRow(res, "save progress for", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_stages (job_id, stage, status, progress, updated_at) VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(job_id, stage) DO UPDATE SET status = excluded.status, progress = excluded.progress, updated_at = excluded.updated_at`,
			id, stage, state.Status, state.Progress, now,
		); err != nil {
			return fmt.Errorf("save stage %s: %w", stage, err)
		}
		return nil
	})
}

// SetArtifact records an output reference. A reference already set is kept,
// so repeated writes are harmless.
func (s *Store) SetArtifact(ctx context.Context, id string, kind ArtifactKind, ref string) error {
	column, ok := artifactColumns[kind]
	if !ok {
		return fmt.Errorf("set artifact: unknown kind %q", kind)
	}
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("set artifact %s: empty reference", kind)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET `+column+` = COALESCE(`+column+`, ?), updated_at = ? WHERE id = ? AND status = ?`,
		ref, nowString(), id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("set artifact %s: %w", kind, err)
	}
	return requireOneRow(res, "set artifact on", id)
}

// UpdateHeartbeat refreshes the lease of a processing job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := nowString()
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ? WHERE id = ? AND status = ?`,
		now, id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale fails processing jobs whose heartbeat is older than cutoff.
// Orphans are failed rather than requeued so no job ever moves backwards.
// The ids of the reclaimed jobs are returned.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time, detail string) ([]string, error) {
	if strings.TrimSpace(detail) == "" {
		detail = "worker heartbeat expired"
	}
	var reclaimed []string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		reclaimed = reclaimed[:0]
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM jobs WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
			StatusProcessing, formatTime(cutoff),
		)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			reclaimed = append(reclaimed, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		now := nowString()
		for _, id := range reclaimed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE jobs SET status = ?, error_detail = ?, updated_at = ? WHERE id = ? AND status = ?`,
				StatusFailed, detail, now, id, StatusProcessing,
			); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE job_stages SET status = ?, updated_at = ? WHERE job_id = ? AND status = ?`,
				StageStatusFailed, now, id, StageStatusInProgress,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return reclaimed, nil
}
