package models

import (
	"time"
)

// DirStatus is the aggregate produced after a comparison
type DirStatus struct {
	Files        int `json:"files"`
	Dirs         int `json:"dirs"`
	EqualFiles   int `json:"equal_files"`
	ManualMerges int `json:"manual_merges"`
}

// DifferentFiles returns the number of files that are not equal on every side
func (s DirStatus) DifferentFiles() int {
	return s.Files - s.EqualFiles
}

// RunReport represents the results of one executor run
type RunReport struct {
	// Run details
	ID        string    `json:"id"`
	RootA     string    `json:"root_a"`
	RootB     string    `json:"root_b"`
	RootC     string    `json:"root_c,omitempty"`
	Dest      string    `json:"dest,omitempty"`
	Simulated bool      `json:"simulated"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Duration of the run
	Duration time.Duration `json:"duration"`

	// Counters
	Processed int `json:"processed"`
	Done      int `json:"done"`
	Skipped   int `json:"skipped"`

	// Log holds one line per filesystem primitive, in execution order
	Log []string `json:"log"`

	// Errors encountered
	Errors []RunError `json:"errors,omitempty"`

	// PendingMerge is the destination of a single-file merge waiting for the user
	PendingMerge string `json:"pending_merge,omitempty"`

	// Overall status
	Status RunStatus `json:"status"`
}

// RunError records a failed entry
type RunError struct {
	Path      string         `json:"path"`
	Operation MergeOperation `json:"operation"`
	Error     string         `json:"error"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunStatus represents the overall result of a run
type RunStatus string

const (
	// RunComplete indicates the whole worklist was processed
	RunComplete RunStatus = "complete"
	// RunWaiting indicates the run stopped for a single-file merge
	RunWaiting RunStatus = "waiting"
	// RunFailed indicates the run stopped on an error
	RunFailed RunStatus = "failed"
	// RunCancelled indicates the run was cancelled
	RunCancelled RunStatus = "cancelled"
)

// ExitCode returns the process exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case RunComplete:
		return 0
	case RunWaiting:
		return 1
	case RunFailed:
		return 2
	case RunCancelled:
		return 3
	default:
		return 2
	}
}
