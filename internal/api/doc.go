// Package api defines the wire-format types and the read/submit service
// behind the HTTP status surface. It translates queue records into
// transport-friendly DTOs so clients never couple to internal types.
//
// # Key Types
//
// Job: one dubbing job with per-stage progress and the output handles that
// currently resolve on disk.
//
// DaemonStatus: daemon running state, queue counts and tool readiness.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings and
// stages are listed in pipeline order. Timestamps use RFC3339 with
// milliseconds. Output handles whose files were purged are omitted rather than
// returned dangling.
package api
