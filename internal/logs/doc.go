// Package logs reads the daemon log file for the CLI.
//
// Tail returns the last lines of a file or everything after a byte offset,
// optionally waiting for new output, with bounded memory. MatchJob narrows
// lines to a single job for both console and JSON log formats.
package logs
