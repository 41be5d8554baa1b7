// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Prober runs ffprobe through a services.Executor so tests can substitute
// canned JSON. Inspect returns the full stream/format listing; AudioStream
// narrows the probe to the first audio stream, which is what the input
// precondition floors (sample rate, bitrate) are checked against.
package ffprobe
