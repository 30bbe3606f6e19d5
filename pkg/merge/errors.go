package merge

import (
	"errors"
	"fmt"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// ConflictError reports an entry whose operation needs a decision from the
// user before the worklist may run
type ConflictError struct {
	Path      string
	Operation models.MergeOperation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s, select what to do", e.Path, e.Operation.ConflictMessage())
}

// OperationError is a failed filesystem primitive
type OperationError struct {
	Path      string
	Operation models.MergeOperation
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Path, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

var (
	// ErrResumeRequired is returned when a run is started while the previous
	// one stopped on an error
	ErrResumeRequired = errors.New("the last run stopped on an error, resume or skip it first")

	// ErrRunPending is returned by RunItem while the worklist of an earlier
	// run is unfinished; Run continues it
	ErrRunPending = errors.New("an earlier run is unfinished, continue it with Run first")

	// errMergePending stops the loop while a single-file merge is open
	errMergePending = errors.New("single file merge pending")
)
