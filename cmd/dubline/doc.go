// Package main implements the dubline command-line interface.
//
// The CLI works directly against the job store and configuration files:
// it submits jobs for a running daemon to pick up, inspects job progress,
// runs the daemon in the foreground, dubs a single video synchronously,
// and provides preflight, configuration and staging maintenance utilities.
package main
