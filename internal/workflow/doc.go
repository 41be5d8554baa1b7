// Package workflow drives dubbing jobs through the fixed pipeline.
//
// Pipeline.Run executes one job end to end: it validates the input before
// claiming the job, runs the six stages (audio extraction, transcription,
// translation, voice synthesis, lip sync, audio remux) strictly in order
// through stage.Executor, reports progress through progress.Tracker, and
// finally publishes the dubbed video into the results directory. Any stage
// failure marks the job failed with a stage-prefixed error detail; the
// per-job staging directory is removed either way.
//
// Manager is the dispatcher. It owns a bounded submission queue and a fixed
// pool of workers, recovers pending jobs on start, polls the store for jobs
// created by other processes, and fails jobs whose worker heartbeat expired.
//
// External tools are reached only through the capability interfaces in
// capabilities.go so tests can substitute deterministic stubs.
package workflow
