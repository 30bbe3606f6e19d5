package merge

import "context"

// MergeRequest describes one single-file merge. Missing inputs are empty.
type MergeRequest struct {
	A    string
	B    string
	C    string
	Dest string

	// Local is set when every path is on the local filesystem
	Local bool
}

// FileMerger starts a single-file merge. A nil error means the merge was
// started; the caller reports the outcome through Executor.MergeResultSaved.
type FileMerger interface {
	RequestMerge(ctx context.Context, req MergeRequest) error
}
