// Package preflight provides readiness checks for the filesystem paths and
// external programs dubline depends on.
//
// The daemon runs RunAll at startup and logs each failure; the CLI
// "dubline preflight" command renders the same results as a table, and the
// status API includes the dependency report.
package preflight
