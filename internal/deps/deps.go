// Package deps reports whether the external programs and model files the
// pipeline shells out to are present.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Kind distinguishes executables from plain files.
type Kind int

const (
	// Binary requirements are resolved through PATH.
	Binary Kind = iota
	// File requirements must exist at the given path.
	File
)

// Requirement defines an external dependency dubline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Kind        Kind
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Resolved    string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check evaluates the provided requirements in order.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "not configured"
		case req.Kind == File:
			if info, err := os.Stat(cmd); err != nil {
				status.Detail = fmt.Sprintf("file %q not found", cmd)
			} else if info.IsDir() {
				status.Detail = fmt.Sprintf("%q is a directory", cmd)
			} else {
				status.Available = true
				status.Resolved = cmd
			}
		default:
			if resolved, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
				status.Resolved = resolved
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are absent.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
