package models

// Phase identifies a long-running stage
type Phase string

const (
	PhaseScan    Phase = "scan"
	PhaseCompare Phase = "compare"
	PhaseMerge   Phase = "merge"
)

// ProgressUpdate represents a progress notification
type ProgressUpdate struct {
	Phase   Phase
	Path    string // item being processed
	Current int
	Total   int // 0 when unknown
	Done    bool
	Err     error
}

// ProgressSink receives progress from scan, compare and merge
type ProgressSink interface {
	Progress(update ProgressUpdate)
}

// NullProgress discards progress updates
type NullProgress struct{}

func (NullProgress) Progress(ProgressUpdate) {}
