package progress

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"dubline/internal/queue"
)

// Store persists stage rows and the aggregate. queue.Store satisfies it.
type Store interface {
	RegisterStages(ctx context.Context, id string, stages ...queue.Stage) error
	SaveProgress(ctx context.Context, id string, stage queue.Stage, state queue.StageState, aggregate int) error
}

// Snapshot is a point-in-time copy of a tracker.
type Snapshot struct {
	Aggregate int
	Stages    map[queue.Stage]queue.StageState
}

// Tracker recomputes aggregate progress as the weighted mean of every
// registered stage.
type Tracker struct {
	mu        sync.Mutex
	store     Store
	jobID     string
	stages    map[queue.Stage]queue.StageState
	aggregate int
}

// NewTracker returns a tracker for jobID backed by store.
func NewTracker(store Store, jobID string) *Tracker {
	return &Tracker{
		store:  store,
		jobID:  jobID,
		stages: make(map[queue.Stage]queue.StageState),
	}
}

// Register adds stages at pending/0. Stages already known keep their state.
func (t *Tracker) Register(ctx context.Context, stages ...queue.Stage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fresh := make([]queue.Stage, 0, len(stages))
	for _, stage := range stages {
		if !stage.Valid() {
			return fmt.Errorf("register: unknown stage %q", stage)
		}
		if _, ok := t.stages[stage]; ok {
			continue
		}
		fresh = append(fresh, stage)
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := t.store.RegisterStages(ctx, t.jobID, fresh...); err != nil {
		return err
	}
	for _, stage := range fresh {
		t.stages[stage] = queue.StageState{Status: queue.StageStatusPending}
	}
	return nil
}

// Update overwrites the entry for stage and persists it with the recomputed
// aggregate. Progress is clamped to [0,100]. An update that changes nothing
// is not written again. An unregistered stage is registered implicitly.
func (t *Tracker) Update(ctx context.Context, stage queue.Stage, status queue.StageStatus, stageProgress int) error {
	if !stage.Valid() {
		return fmt.Errorf("update: unknown stage %q", stage)
	}
	stageProgress = clamp(stageProgress)

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, known := t.stages[stage]
	if known && prev.Status == status && prev.Progress == stageProgress {
		return nil
	}

	next := make(map[queue.Stage]queue.StageState, len(t.stages)+1)
	maps.Copy(next, t.stages)
	state := queue.StageState{Status: status, Progress: stageProgress}
	next[stage] = state

	aggregate := max(weightedMean(next), t.aggregate)
	if err := t.store.SaveProgress(ctx, t.jobID, stage, state, aggregate); err != nil {
		return err
	}
	t.stages = next
	t.aggregate = aggregate
	return nil
}

// Snapshot returns the current aggregate and a copy of the stage map.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Aggregate: t.aggregate, Stages: maps.Clone(t.stages)}
}

// Stage returns the tracked state of a single stage.
func (t *Tracker) Stage(stage queue.Stage) (queue.StageState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.stages[stage]
	return state, ok
}

func weightedMean(stages map[queue.Stage]queue.StageState) int {
	var sum, weights int
	for stage, state := range stages {
		w := stage.Weight()
		sum += w * state.Progress
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return clamp(sum / weights)
}

func clamp(v int) int {
	return min(max(v, 0), 100)
}
