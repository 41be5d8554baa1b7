package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dubline/internal/config"
	"dubline/internal/logging"
	"dubline/internal/queue"
	"dubline/internal/services"
	"dubline/internal/stage"
)

// ErrQueueFull is returned by Submit when the bounded queue is saturated.
var ErrQueueFull = errors.New("job queue full")

// Runner executes one job. Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

// Manager dispatches submitted jobs to a fixed pool of workers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	runner       Runner
	logger       *slog.Logger
	heartbeat    *HeartbeatMonitor
	workers      int
	pollInterval time.Duration

	queue chan string

	mu       sync.RWMutex
	inFlight map[string]struct{}
	running  bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	lastErr  error
}

// NewManager constructs a dispatcher around runner.
func NewManager(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow-manager")
	workers := cfg.Workflow.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	size := cfg.Workflow.QueueSize
	if size <= 0 {
		size = workers
	}
	return &Manager{
		cfg:    cfg,
		store:  store,
		runner: runner,
		logger: logger,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		workers:      workers,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		queue:        make(chan string, size),
		inFlight:     make(map[string]struct{}),
	}
}

// Submit enqueues jobID for processing. Submitting a job that is already
// queued or running is a no-op.
func (m *Manager) Submit(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inFlight[jobID]; ok {
		return nil
	}
	select {
	case m.queue <- jobID:
		m.inFlight[jobID] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool, fails orphaned jobs, re-queues pending jobs
// left over from a previous run, and begins polling the store.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	m.cancel = cancel
	m.group = group
	m.running = true
	m.mu.Unlock()

	if _, err := m.heartbeat.ReapExpired(runCtx); err != nil {
		m.logger.Warn("heartbeat reap failed; stuck jobs may remain",
			logging.Error(err),
			logging.String(logging.FieldEventType, "heartbeat_reap_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
	}

	for i := 0; i < m.workers; i++ {
		worker := i
		group.Go(func() error {
			m.work(groupCtx, worker)
			return nil
		})
	}
	group.Go(func() error {
		m.poll(groupCtx)
		return nil
	})

	m.logger.Info("workflow started",
		logging.Int("workers", m.workers),
		logging.Int("queue_size", cap(m.queue)),
		logging.String(logging.FieldEventType, "workflow_started"),
	)
	return nil
}

// Stop cancels the workers and waits for them to return. Jobs interrupted
// mid-stage stay processing until their heartbeat expires.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, group := m.cancel, m.group
	m.running = false
	m.cancel = nil
	m.group = nil
	m.mu.Unlock()

	cancel()
	_ = group.Wait()
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
}

// ReapExpired fails processing jobs whose heartbeat expired.
func (m *Manager) ReapExpired(ctx context.Context) ([]string, error) {
	return m.heartbeat.ReapExpired(ctx)
}

// ActiveJobs returns the ids currently queued or running in this process.
func (m *Manager) ActiveJobs() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active := make(map[string]struct{}, len(m.inFlight))
	for id := range m.inFlight {
		active[id] = struct{}{}
	}
	return active
}

func (m *Manager) work(ctx context.Context, worker int) {
	logger := m.logger.With(logging.Int("worker", worker))
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-m.queue:
			m.process(ctx, logger, id)
		}
	}
}

func (m *Manager) process(ctx context.Context, logger *slog.Logger, jobID string) {
	defer m.release(jobID)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("job runner panicked",
				logging.String(logging.FieldJobID, jobID),
				logging.Any("panic", rec),
				logging.String(logging.FieldEventType, "runner_panic"),
			)
		}
	}()

	err := m.runner.Run(ctx, jobID)
	if err == nil {
		return
	}
	m.setLastError(err)
	logger.Warn("job finished with error",
		logging.String(logging.FieldJobID, jobID),
		logging.String("error_kind", string(services.KindOf(err))),
		logging.Error(err),
		logging.String(logging.FieldEventType, "job_error"),
	)
}

func (m *Manager) release(jobID string) {
	m.mu.Lock()
	delete(m.inFlight, jobID)
	m.mu.Unlock()
}

// poll re-queues pending jobs immediately and then on every tick, which also
// picks up jobs created by other processes.
func (m *Manager) poll(ctx context.Context) {
	interval := m.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.enqueuePending(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := m.heartbeat.ReapExpired(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn("heartbeat reap failed", logging.Error(err))
		}
	}
}

func (m *Manager) enqueuePending(ctx context.Context) {
	ids, err := m.store.PendingIDs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.setLastError(err)
			m.logger.Error("failed to list pending jobs",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		return
	}
	for _, id := range ids {
		if err := m.Submit(ctx, id); err != nil {
			if errors.Is(err, ErrQueueFull) {
				m.logger.Debug("queue full; deferring pending jobs", logging.Int("remaining", len(ids)))
			}
			return
		}
	}
}

// StatusSummary reports dispatcher state for diagnostics.
type StatusSummary struct {
	Running    bool
	Workers    int
	InFlight   int
	LastError  string
	QueueStats map[queue.Status]int
	Health     []stage.Health
}

// Status returns the latest dispatcher information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:  m.running,
		Workers:  m.workers,
		InFlight: len(m.inFlight),
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	summary.Health = CapabilityHealth(ctx, m.cfg)
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
