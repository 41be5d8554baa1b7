package workflow

import (
	"context"
	"time"

	"dubline/internal/logging"
	"dubline/internal/progress"
	"dubline/internal/queue"
	"dubline/internal/services"
	"dubline/internal/stage"
)

// lipSyncBuffer bounds the queue of progress fractions between the engine and
// the job goroutine. Fractions that arrive while it is full are dropped; a
// later one supersedes them.
const lipSyncBuffer = 16

// lipSync re-syncs the speaker's lips to the dubbed audio. When no engine is
// bound the stage completes immediately and the source video feeds the remux.
func (r *jobRun) lipSync(ctx context.Context) error {
	engine := r.p.caps.LipSync
	if engine == nil || !r.p.cfg.LipSync.Enabled {
		r.logger.Info("lip sync disabled; remuxing source video",
			logging.String(logging.FieldEventType, "lipsync_skipped"),
		)
		r.remuxInput = r.job.InputPath
		return nil
	}

	band := progress.Band{Low: r.p.cfg.LipSync.ProgressLow, High: r.p.cfg.LipSync.ProgressHigh}
	sampler := progress.NewSampler(time.Duration(r.p.cfg.LipSync.ProgressIntervalMS)*time.Millisecond, 0.01)

	out, err := r.p.executor.Run(ctx, stage.Request{
		Stage:  queue.StageLipSync,
		Inputs: []string{r.job.InputPath, r.dubbedAudio},
		Output: r.ws.Path(lipSyncedName + videoExt(r.job.InputPath)),
	}, func(ctx context.Context, output string) error {
		updates := make(chan float64, lipSyncBuffer)
		done := make(chan error, 1)
		go func() {
			defer close(updates)
			done <- engine.Sync(ctx, services.LipSyncRequest{
				Video:   r.job.InputPath,
				Audio:   r.dubbedAudio,
				Output:  output,
				Quality: r.p.cfg.LipSync.Quality,
			}, func(fraction float64) {
				select {
				case updates <- fraction:
				default:
				}
			})
		}()
		for fraction := range updates {
			if !sampler.Allow(fraction) {
				continue
			}
			if err := r.tracker.Update(ctx, queue.StageLipSync, queue.StageStatusInProgress, band.Map(fraction)); err != nil {
				r.logger.Warn("lip sync progress not recorded", logging.Error(err))
			}
		}
		return <-done
	})
	if err != nil {
		return err
	}
	r.remuxInput = out
	return r.recordArtifact(ctx, queue.StageLipSync, queue.ArtifactLipSyncedVideo, out)
}
