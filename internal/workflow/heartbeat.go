package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dubline/internal/logging"
	"dubline/internal/queue"
)

// HeartbeatMonitor refreshes job leases and fails jobs whose lease expired.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{
		store:    store,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// ReapExpired fails processing jobs whose heartbeat is older than the
// timeout and returns their ids. A zero timeout disables reaping.
func (h *HeartbeatMonitor) ReapExpired(ctx context.Context) ([]string, error) {
	if h == nil || h.timeout <= 0 {
		return nil, nil
	}
	ids, err := h.store.ReclaimStale(ctx, time.Now().Add(-h.timeout), "worker heartbeat expired")
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		h.logger.Warn("failed jobs with expired heartbeat",
			logging.Int("count", len(ids)),
			logging.Any("job_ids", ids),
			logging.String(logging.FieldEventType, "heartbeat_reaped"),
		)
	}
	return ids, nil
}

// StartLoop refreshes the heartbeat of jobID until ctx is cancelled.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, jobID string) {
	defer wg.Done()
	if h == nil || h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger.With(logging.String(logging.FieldComponent, "workflow-heartbeat")))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, jobID); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Debug("heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed", logging.Error(err))
				}
			}
		}
	}
}
