// Package progress maintains the per-stage status map of a job and derives
// its aggregate percentage.
//
// A Tracker is owned by the single goroutine running a job. Every update is
// persisted together with the aggregate through queue.Store.SaveProgress, so
// readers polling the store never observe the aggregate moving backwards.
// Band and Sampler fold fractional sub-progress from long running tools into
// a stage's range at a bounded rate.
package progress
