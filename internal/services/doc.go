// Package services defines shared utilities consumed by the pipeline stages
// and the external capability clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper and KindOf classifier the
//     pipeline uses to decide how a failed stage is reported.
//   - A command executor abstraction that makes external tools (ffmpeg,
//     whisper, tts, Wav2Lip) testable and streams their output line by line.
//
// Use these helpers when wiring new capability clients so operational
// behaviour (error reporting, observability) stays uniform across the pipeline.
package services
