package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dubline/internal/config"
	"dubline/internal/logging"
	"dubline/internal/notifications"
	"dubline/internal/precheck"
	"dubline/internal/progress"
	"dubline/internal/queue"
	"dubline/internal/services"
	"dubline/internal/stage"
	"dubline/internal/staging"
)

// Artifact file names inside a job workspace.
const (
	extractedAudioName = "extracted_audio.wav"
	transcriptName     = "transcript.txt"
	translationName    = "translation.txt"
	dubbedAudioName    = "dubbed_audio.wav"
	lipSyncedName      = "lipsynced"
	remuxedName        = "remuxed"
)

// Pipeline runs single jobs through every stage.
type Pipeline struct {
	cfg       *config.Config
	store     *queue.Store
	caps      Capabilities
	checker   *precheck.Checker
	executor  *stage.Executor
	heartbeat *HeartbeatMonitor
	logger    *slog.Logger
	workerID  string
}

// NewPipeline constructs a pipeline. The capabilities are shared across every
// job the pipeline runs.
func NewPipeline(cfg *config.Config, store *queue.Store, caps Capabilities, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow-pipeline")
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		caps:     caps,
		checker:  precheck.New(precheck.LimitsFromConfig(cfg), caps.Prober),
		executor: stage.NewExecutor(logger),
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		logger:   logger,
		workerID: uuid.NewString(),
	}
}

// WorkerID identifies this pipeline as the lease owner of the jobs it claims.
func (p *Pipeline) WorkerID() string {
	return p.workerID
}

// Run executes jobID. The job must be pending. Input validation happens
// before the claim, so a rejected job moves straight from pending to failed
// without any capability being invoked. The returned error is informational;
// the job record already reflects the outcome.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, p.logger)

	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		return services.Wrap(services.ErrInternalInconsistency, "", "load job", jobID, err)
	}
	if job == nil {
		return services.Wrap(services.ErrInternalInconsistency, "", "load job", fmt.Sprintf("job %s not found", jobID), nil)
	}
	if job.Status != queue.StatusPending {
		return services.Wrap(services.ErrInternalInconsistency, "", "load job", fmt.Sprintf("job %s is %s", jobID, job.Status), nil)
	}

	if err := p.checker.CheckVideo(job.InputPath); err != nil {
		logger.Warn("input rejected",
			logging.String(logging.FieldEventType, "precheck_failed"),
			logging.String("input", job.InputPath),
			logging.Error(err),
		)
		if ferr := p.store.FailPending(ctx, jobID, err.Error()); ferr != nil {
			logger.Error("failed to persist rejection", logging.Error(ferr))
			return err
		}
		p.notify(ctx, logger, job, notifications.EventJobFailed, notifications.Payload{"error": err.Error()})
		return err
	}

	if err := p.store.Claim(ctx, jobID, p.workerID); err != nil {
		return services.Wrap(services.ErrInternalInconsistency, "", "claim", jobID, err)
	}
	logger.Info("job claimed",
		logging.String(logging.FieldEventType, "job_claimed"),
		logging.String("worker_id", p.workerID),
		logging.String("input", job.InputPath),
	)

	run := &jobRun{
		p:       p,
		job:     job,
		tracker: progress.NewTracker(p.store, jobID),
		logger:  logger,
	}
	return run.execute(ctx)
}

// jobRun holds the state of one claimed job.
type jobRun struct {
	p       *Pipeline
	job     *queue.Job
	tracker *progress.Tracker
	ws      staging.Workspace
	logger  *slog.Logger

	current queue.Stage

	extractedAudio string
	transcript     string
	translatedPath string
	translated     string
	dubbedAudio    string
	remuxInput     string
	remuxed        string
}

func (r *jobRun) execute(ctx context.Context) (err error) {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go r.p.heartbeat.StartLoop(hbCtx, &wg, r.job.ID)
	defer func() {
		stopHeartbeat()
		wg.Wait()
	}()

	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = services.Wrap(services.ErrInternalInconsistency, string(r.current), "run", fmt.Sprintf("panic: %v", rec), nil)
		}
		if err != nil {
			r.fail(ctx, err)
		} else {
			r.logger.Info("job completed",
				logging.String(logging.FieldEventType, "job_completed"),
				logging.Duration("elapsed", time.Since(started)),
			)
		}
		r.cleanup()
	}()

	if err := r.tracker.Register(ctx, queue.AllStages()...); err != nil {
		return services.Wrap(services.ErrInternalInconsistency, "", "register stages", "", err)
	}
	ws, err := staging.Open(r.p.cfg.Paths.StagingDir, r.job.ID)
	if err != nil {
		return services.Wrap(services.ErrInternalInconsistency, "", "open workspace", "", err)
	}
	r.ws = ws

	steps := []struct {
		stage queue.Stage
		run   func(context.Context) error
	}{
		{queue.StageAudioExtraction, r.extractAudio},
		{queue.StageTranscription, r.transcribe},
		{queue.StageTranslation, r.translate},
		{queue.StageVoiceSynthesis, r.synthesize},
		{queue.StageLipSync, r.lipSync},
		{queue.StageAudioRemux, r.remux},
	}
	for _, step := range steps {
		r.current = step.stage
		if err := r.tracker.Update(ctx, step.stage, queue.StageStatusInProgress, 0); err != nil {
			return services.Wrap(services.ErrInternalInconsistency, string(step.stage), "record progress", "", err)
		}
		if err := step.run(ctx); err != nil {
			return err
		}
		if err := r.tracker.Update(ctx, step.stage, queue.StageStatusCompleted, 100); err != nil {
			return services.Wrap(services.ErrInternalInconsistency, string(step.stage), "record progress", "", err)
		}
	}
	r.current = ""
	return r.finalize(ctx)
}

func (r *jobRun) extractAudio(ctx context.Context) error {
	out, err := r.p.executor.Run(ctx, stage.Request{
		Stage:  queue.StageAudioExtraction,
		Inputs: []string{r.job.InputPath},
		Output: r.ws.Path(extractedAudioName),
	}, func(ctx context.Context, output string) error {
		return r.p.caps.Extractor.Extract(ctx, r.job.InputPath, output)
	})
	if err != nil {
		return err
	}
	r.extractedAudio = out
	if err := r.p.store.SetArtifact(ctx, r.job.ID, queue.ArtifactExtractedAudio, out); err != nil {
		return services.Wrap(services.ErrInternalInconsistency, string(queue.StageAudioExtraction), "record artifact", "", err)
	}
	return r.p.checker.CheckAudio(ctx, out)
}

func (r *jobRun) transcribe(ctx context.Context) error {
	out, err := r.p.executor.Run(ctx, stage.Request{
		Stage:  queue.StageTranscription,
		Inputs: []string{r.extractedAudio},
		Output: r.ws.Path(transcriptName),
	}, func(ctx context.Context, output string) error {
		text, err := r.p.caps.Transcriber.Transcribe(ctx, r.extractedAudio, r.p.cfg.SourceLanguage())
		if err != nil {
			return err
		}
		r.transcript = text
		return writeText(output, text)
	})
	if err != nil {
		return err
	}
	return r.recordArtifact(ctx, queue.StageTranscription, queue.ArtifactTranscript, out)
}

// translate writes the translated text to translation.txt and publishes it
// into the job's results directory right away so the text stays downloadable
// even when a later stage fails.
func (r *jobRun) translate(ctx context.Context) error {
	out, err := r.p.executor.Run(ctx, stage.Request{
		Stage:  queue.StageTranslation,
		Inputs: []string{r.ws.Path(transcriptName)},
		Output: r.ws.Path(translationName),
	}, func(ctx context.Context, output string) error {
		text, err := r.p.caps.Translator.Translate(ctx, r.transcript, r.p.cfg.Translation.MaxRetries)
		if err != nil {
			return err
		}
		r.translated = text
		return writeText(output, text)
	})
	if err != nil {
		return err
	}
	r.translatedPath = out
	published, err := r.publish(out, translationName)
	if err != nil {
		return services.Wrap(services.ErrInternalInconsistency, string(queue.StageTranslation), "publish", "", err)
	}
	return r.recordArtifact(ctx, queue.StageTranslation, queue.ArtifactTranslatedText, published)
}

func (r *jobRun) synthesize(ctx context.Context) error {
	out, err := r.p.executor.Run(ctx, stage.Request{
		Stage:    queue.StageVoiceSynthesis,
		Inputs:   []string{r.translatedPath, r.extractedAudio},
		Output:   r.ws.Path(dubbedAudioName),
		Validate: validateWAV,
	}, func(ctx context.Context, output string) error {
		return r.p.caps.Synthesizer.Synthesize(ctx, r.translated, r.extractedAudio, r.p.cfg.TargetLanguage(), output)
	})
	if err != nil {
		return err
	}
	r.dubbedAudio = out
	published, err := r.publish(out, dubbedAudioName)
	if err != nil {
		return services.Wrap(services.ErrInternalInconsistency, string(queue.StageVoiceSynthesis), "publish", "", err)
	}
	return r.recordArtifact(ctx, queue.StageVoiceSynthesis, queue.ArtifactSynthesizedAudio, published)
}

func (r *jobRun) remux(ctx context.Context) error {
	out, err := r.p.executor.Run(ctx, stage.Request{
		Stage:  queue.StageAudioRemux,
		Inputs: []string{r.remuxInput, r.dubbedAudio},
		Output: r.ws.Path(remuxedName + videoExt(r.job.InputPath)),
	}, func(ctx context.Context, output string) error {
		return r.p.caps.Remuxer.ReplaceAudio(ctx, r.remuxInput, r.dubbedAudio, output)
	})
	if err != nil {
		return err
	}
	r.remuxed = out
	return nil
}

func (r *jobRun) finalize(ctx context.Context) error {
	name := finalVideoName(r.job.InputPath, r.p.cfg.TargetLanguage())
	published, err := r.publish(r.remuxed, name)
	if err != nil {
		return services.Wrap(services.ErrInternalInconsistency, "finalize", "publish", "", err)
	}
	if err := r.p.store.Complete(ctx, r.job.ID, published); err != nil {
		return services.Wrap(services.ErrInternalInconsistency, "finalize", "complete", "", err)
	}
	r.logger.Info("final video published",
		logging.String(logging.FieldEventType, "job_published"),
		logging.String("final_video", published),
	)
	r.notify(ctx, notifications.EventJobCompleted, notifications.Payload{"output": published})
	return nil
}

// fail records err against the current stage and moves the job to failed.
// Shutdown cancellation leaves the job processing for the heartbeat reaper.
func (r *jobRun) fail(ctx context.Context, err error) {
	logger := r.logger
	if r.current != "" {
		logger = logger.With(logging.String(logging.FieldStage, string(r.current)))
	}
	if ctx.Err() != nil {
		logger.Warn("job interrupted by shutdown",
			logging.String(logging.FieldEventType, "job_interrupted"),
			logging.Error(err),
		)
		return
	}

	kind := services.KindOf(err)
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.String("error_kind", string(kind)),
		logging.Error(err),
	)

	if r.current != "" {
		state, _ := r.tracker.Stage(r.current)
		if uerr := r.tracker.Update(ctx, r.current, queue.StageStatusFailed, state.Progress); uerr != nil {
			logger.Warn("failed to mark stage failed", logging.Error(uerr))
		}
	}
	detail := failureDetail(r.current, err)
	if ferr := r.p.store.Fail(ctx, r.job.ID, detail); ferr != nil {
		logger.Error("failed to persist job failure", logging.Error(ferr))
		return
	}
	r.notify(ctx, notifications.EventJobFailed, notifications.Payload{"error": detail})
}

func (r *jobRun) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	r.p.notify(ctx, r.logger, r.job, event, payload)
}

// notify publishes a job outcome. Delivery problems never affect the job.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, job *queue.Job, event notifications.Event, payload notifications.Payload) {
	if p.caps.Notifier == nil {
		return
	}
	payload["jobId"] = job.ID
	payload["input"] = job.InputPath
	if err := p.caps.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// cleanup removes the job workspace. Errors are logged, never returned.
func (r *jobRun) cleanup() {
	if err := r.ws.Remove(); err != nil {
		r.logger.Warn("workspace cleanup failed",
			logging.String(logging.FieldEventType, "cleanup_failed"),
			logging.Error(err),
		)
	}
}

func (r *jobRun) publish(src, name string) (string, error) {
	return publishArtifact(src, filepath.Join(r.p.cfg.Paths.ResultsDir, r.job.ID), name)
}

func (r *jobRun) recordArtifact(ctx context.Context, st queue.Stage, kind queue.ArtifactKind, ref string) error {
	if err := r.p.store.SetArtifact(ctx, r.job.ID, kind, ref); err != nil {
		return services.Wrap(services.ErrInternalInconsistency, string(st), "record artifact", string(kind), err)
	}
	return nil
}

func failureDetail(st queue.Stage, err error) string {
	label := string(st)
	if label == "" {
		label = "pipeline"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "failed without error detail"
	}
	return fmt.Sprintf("%s failed: %s", label, msg)
}
