// Package daemon coordinates the long-running dubline process.
//
// It wires configuration, queue storage and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon serves the HTTP job API, runs the scheduled maintenance sweep
// (stale staging directories and expired worker heartbeats), and reports
// dependency health.
//
// Keep orchestration logic here: pipeline steps live in workflow while the
// daemon focuses on startup, shutdown and high level coordination.
package daemon
