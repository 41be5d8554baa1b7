// Package queue persists dubbing jobs in SQLite and exposes the guarded
// transitions that drive their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, and orphan recovery. Every status transition is
// expressed as a conditional UPDATE so the pending -> processing ->
// completed|failed ordering holds even when several processes share the
// database. Per-stage progress lives in its own job_stages table; artifact
// references are written with COALESCE so each is set at most once.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package queue
