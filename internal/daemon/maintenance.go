package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"dubline/internal/config"
	"dubline/internal/logging"
	"dubline/internal/staging"
	"dubline/internal/workflow"
)

// maintenance runs the periodic sweep of stale staging directories and
// expired heartbeats. Overlapping triggers collapse into one run.
type maintenance struct {
	cfg      *config.Config
	workflow *workflow.Manager
	logger   *slog.Logger
	cron     *cron.Cron
	group    singleflight.Group
	ctx      context.Context
}

func newMaintenance(cfg *config.Config, wf *workflow.Manager, logger *slog.Logger) (*maintenance, error) {
	m := &maintenance{
		cfg:      cfg,
		workflow: wf,
		logger:   logger.With(logging.String(logging.FieldComponent, "maintenance")),
		ctx:      context.Background(),
	}
	schedule := strings.TrimSpace(cfg.Staging.CleanupSchedule)
	if schedule == "" {
		return m, nil
	}
	m.cron = cron.New()
	if _, err := m.cron.AddFunc(schedule, func() { m.run(m.ctx) }); err != nil {
		return nil, fmt.Errorf("cleanup schedule %q: %w", schedule, err)
	}
	return m, nil
}

func (m *maintenance) start(ctx context.Context) {
	m.ctx = ctx
	if m.cron != nil {
		m.cron.Start()
	}
}

func (m *maintenance) stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}

// MaintenanceReport summarizes one sweep.
type MaintenanceReport struct {
	Reaped  []string
	Cleaned staging.CleanStaleResult
}

// run performs one sweep, sharing the result with concurrent callers.
func (m *maintenance) run(ctx context.Context) MaintenanceReport {
	v, _, _ := m.group.Do("sweep", func() (any, error) {
		var report MaintenanceReport
		reaped, err := m.workflow.ReapExpired(ctx)
		if err != nil {
			m.logger.Warn("heartbeat reap failed", logging.Error(err))
		}
		report.Reaped = reaped
		report.Cleaned = staging.CleanStale(ctx, m.cfg.Paths.StagingDir, m.cfg.StagingMaxAge(), m.workflow.ActiveJobs(), m.logger)
		m.logger.Info("maintenance sweep finished",
			logging.Int("reaped", len(report.Reaped)),
			logging.Int("cleaned", len(report.Cleaned.Removed)),
			logging.String(logging.FieldEventType, "maintenance_sweep"),
		)
		return report, nil
	})
	report, _ := v.(MaintenanceReport)
	return report
}

// RunMaintenance triggers a sweep immediately.
func (d *Daemon) RunMaintenance(ctx context.Context) MaintenanceReport {
	return d.maintenance.run(ctx)
}
