package merge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// ResumeChoice tells the executor what to do with the entry that failed
// in the previous run
type ResumeChoice int

const (
	// ResumeRetry executes the failed entry again
	ResumeRetry ResumeChoice = iota
	// ResumeSkip marks the failed entry Skipped and moves on
	ResumeSkip
	// ResumeAccept treats the failed entry as handled and marks it Done
	ResumeAccept
)

// ParseResumeChoice converts retry, skip or accept into a ResumeChoice
func ParseResumeChoice(s string) (ResumeChoice, error) {
	switch s {
	case "retry":
		return ResumeRetry, nil
	case "skip":
		return ResumeSkip, nil
	case "accept":
		return ResumeAccept, nil
	}
	return ResumeRetry, &models.ValidationError{Field: "on-error", Message: "must be retry, skip or accept"}
}

// ExecutorOptions configures an Executor
type ExecutorOptions struct {
	// Simulate only logs what would be done
	Simulate bool

	// Merger runs single-file merges; required for real runs with merge operations
	Merger FileMerger

	// Limiter throttles file copies; nil is unlimited
	Limiter *storage.Limiter

	Logger   logging.Logger
	Progress models.ProgressSink
}

// Executor runs the operations of a session's tree depth-first. It keeps
// its worklist between runs so that a run stopped by an error, a pending
// single-file merge or a cancellation can be continued.
type Executor struct {
	id       string
	session  *Session
	tree     *Tree
	config   Config
	simulate bool
	merger   FileMerger
	limiter  *storage.Limiter
	logger   logging.Logger
	progress models.ProgressSink

	worklist []EntryID
	current  int

	// failed is set when the last run stopped on an error
	failed bool
	// retryCurrent is set when the last run stopped before finishing the current entry
	retryCurrent    bool
	singleFileMerge bool

	log    []string
	errors []models.RunError
}

// NewExecutor creates an executor for session
func NewExecutor(session *Session, opts ExecutorOptions) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	progress := opts.Progress
	if progress == nil {
		progress = models.NullProgress{}
	}
	return &Executor{
		id:       uuid.New().String(),
		session:  session,
		tree:     session.Tree(),
		config:   session.Config(),
		simulate: opts.Simulate,
		merger:   opts.Merger,
		limiter:  opts.Limiter,
		logger:   logger.WithFields(logging.Fields{"component": "merge", "simulate": opts.Simulate}),
		progress: progress,
	}
}

// Simulated reports whether the executor only logs
func (x *Executor) Simulated() bool { return x.simulate }

// Pending reports whether a worklist is being processed
func (x *Executor) Pending() bool { return len(x.worklist) > 0 }

// Failed reports whether the last run stopped on an error
func (x *Executor) Failed() bool { return x.failed }

// Current returns the entry the worklist stopped at, or nil
func (x *Executor) Current() *Entry {
	if x.current >= len(x.worklist) {
		return nil
	}
	return x.tree.Entry(x.worklist[x.current])
}

// Prepare collects the pending entries below ids, or below the root when
// ids is empty, in pre-order. An entry with an error operation empties the
// worklist and is returned as a *ConflictError.
func (x *Executor) Prepare(ids ...EntryID) error {
	x.worklist = nil
	x.current = 0
	if len(ids) == 0 {
		ids = x.tree.Root().Children
	}

	for _, id := range ids {
		var conflict *ConflictError
		x.tree.Walk(id, func(e *Entry) bool {
			if conflict != nil {
				return false
			}
			if !e.running {
				return true
			}
			x.worklist = append(x.worklist, e.ID)
			if e.Operation.IsError() {
				conflict = &ConflictError{Path: x.tree.SubPath(e.ID), Operation: e.Operation}
				return false
			}
			return true
		})
		if conflict != nil {
			x.worklist = nil
			return conflict
		}
	}
	return nil
}

// Run processes the whole tree. A worklist left over from a previous run
// that stopped for a single-file merge or a cancellation is continued.
func (x *Executor) Run(ctx context.Context) (*models.RunReport, error) {
	return x.start(ctx, nil)
}

// RunItem processes id and its descendants. An open single-file merge is
// closed first; if an earlier run is still unfinished after that, RunItem
// returns ErrRunPending instead of starting.
func (x *Executor) RunItem(ctx context.Context, id EntryID) (*models.RunReport, error) {
	if !x.failed {
		x.canContinue()
		if x.Pending() {
			return nil, ErrRunPending
		}
	}
	if x.tree.Entry(id) == nil || id == RootID {
		return x.start(ctx, nil)
	}
	return x.start(ctx, []EntryID{id})
}

func (x *Executor) start(ctx context.Context, ids []EntryID) (*models.RunReport, error) {
	if x.failed {
		return nil, ErrResumeRequired
	}
	x.canContinue()

	if len(x.worklist) > 0 {
		return x.run(ctx, false, ResumeRetry), nil
	}
	if err := x.Prepare(ids...); err != nil {
		x.logger.Warn(ctx, "Merge cannot start", logging.Fields{"error": err.Error()})
		return nil, err
	}
	return x.run(ctx, true, ResumeRetry), nil
}

// Resume continues after a run that stopped on an error, handling the
// failed entry according to choice
func (x *Executor) Resume(ctx context.Context, choice ResumeChoice) (*models.RunReport, error) {
	if !x.failed {
		return x.start(ctx, nil)
	}
	return x.run(ctx, false, choice), nil
}

// canContinue closes a single-file merge that was left without saving
func (x *Executor) canContinue() {
	e := x.Current()
	if e == nil || !e.running || !x.singleFileMerge {
		return
	}
	e.Status = models.StatusNotSaved
	e.endOperation()
	x.singleFileMerge = false
	if len(x.worklist) == 1 {
		x.clearWorklist()
	}
}

// MergeResultSaved records that the single-file merge of the current entry
// wrote path. A MergeToAB result is then copied from B to A.
func (x *Executor) MergeResultSaved(ctx context.Context, path string) error {
	e := x.Current()
	if e == nil {
		return nil
	}
	x.singleFileMerge = false

	if e.Operation == models.OpMergeToAB && path == x.tree.FullName(e.ID, SideDest) {
		if err := x.copyFLD(ctx, x.side(e, SideB), x.side(e, SideA)); err != nil {
			x.logger.Error(ctx, "Copying the merge result to A failed", err, logging.Fields{"path": x.tree.SubPath(e.ID)})
			x.failed = true
			e.Status = models.StatusError
			e.Operation = models.OpCopyBToA
			x.recordError(e, err)
			return &OperationError{Path: x.tree.SubPath(e.ID), Operation: models.OpMergeToAB, Err: err}
		}
	}

	e.Status = models.StatusDone
	e.endOperation()
	if len(x.worklist) == 1 {
		x.clearWorklist()
	}
	return nil
}

func (x *Executor) clearWorklist() {
	x.worklist = nil
	x.current = 0
}

// run is the execution loop. With start set the current entry has not been
// executed yet; otherwise it is completed first and the loop advances.
func (x *Executor) run(ctx context.Context, start bool, choice ResumeChoice) *models.RunReport {
	report := &models.RunReport{
		ID:        x.id,
		Simulated: x.simulate,
		StartTime: time.Now(),
	}
	x.fillRoots(report)
	x.log = nil
	x.errors = nil

	continueWithCurrent := start || x.retryCurrent
	x.retryCurrent = false
	skipItem := false
	if !start && x.failed && x.Current() != nil {
		switch choice {
		case ResumeRetry:
			continueWithCurrent = true
		case ResumeSkip:
			skipItem = true
		}
		x.failed = false
	}

	x.logger.Info(ctx, "Merge run started", logging.Fields{"items": len(x.worklist), "position": x.current})

	for {
		if !continueWithCurrent {
			x.completeCurrent(report, skipItem)
			skipItem = false
			x.advance()
		}
		continueWithCurrent = false

		e := x.Current()
		if e == nil {
			x.finishWorklist()
			report.Status = models.RunComplete
			break
		}

		if err := ctx.Err(); err != nil {
			x.retryCurrent = true
			report.Status = models.RunCancelled
			break
		}

		x.progress.Progress(models.ProgressUpdate{
			Phase:   models.PhaseMerge,
			Path:    x.tree.SubPath(e.ID),
			Current: x.current + 1,
			Total:   len(x.worklist),
		})

		err := x.executeOperation(ctx, e)
		if errors.Is(err, errMergePending) {
			report.PendingMerge = x.destination(e).String()
			report.Status = models.RunWaiting
			break
		}
		if err != nil {
			if storage.IsCancelled(err) || ctx.Err() != nil {
				x.retryCurrent = true
				report.Status = models.RunCancelled
				break
			}
			x.failed = true
			e.Status = models.StatusError
			x.recordError(e, err)
			x.logger.Error(ctx, "Merge operation failed", err, logging.Fields{
				"path":      x.tree.SubPath(e.ID),
				"operation": e.Operation.String(),
			})
			report.Status = models.RunFailed
			break
		}
		report.Processed++
	}

	report.Log = x.log
	report.Errors = x.errors
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	x.progress.Progress(models.ProgressUpdate{Phase: models.PhaseMerge, Current: x.current, Total: len(x.worklist), Done: true})
	x.logger.Info(ctx, "Merge run stopped", logging.Fields{
		"status":    string(report.Status),
		"processed": report.Processed,
		"done":      report.Done,
		"skipped":   report.Skipped,
	})
	return report
}

func (x *Executor) fillRoots(report *models.RunReport) {
	roots := x.tree.Roots()
	report.RootA = roots.A.String()
	report.RootB = roots.B.String()
	if roots.C != nil {
		report.RootC = roots.C.String()
	}
	if roots.Dest != nil {
		report.Dest = roots.Dest.String()
	}
}

func (x *Executor) recordError(e *Entry, err error) {
	x.errors = append(x.errors, models.RunError{
		Path:      x.tree.SubPath(e.ID),
		Operation: e.Operation,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// completeCurrent closes the current entry before the loop moves on.
// Directories stay InProgress until all of their children are complete.
func (x *Executor) completeCurrent(report *models.RunReport, skip bool) {
	e := x.Current()
	if e == nil {
		return
	}

	if x.simulate {
		if e.IsLeaf() || x.childrenComplete(e) {
			e.simComplete = true
		}
		return
	}

	if !e.IsLeaf() {
		if x.childrenComplete(e) {
			e.Status = models.StatusDone
			e.endOperation()
			return
		}
		e.Status = models.StatusInProgress
		return
	}
	if !e.running {
		return
	}
	if skip {
		e.Status = models.StatusSkipped
		report.Skipped++
	} else {
		e.Status = models.StatusDone
		report.Done++
	}
	e.endOperation()
}

// advance moves to the next worklist entry. When the walk leaves a
// directory, every ancestor whose children are all complete is completed.
func (x *Executor) advance() {
	prev := x.Current()
	x.current++
	if prev == nil {
		return
	}

	next := x.Current()
	if next != nil && next.Parent == prev.Parent {
		return
	}

	for parent := x.tree.Entry(prev.Parent); parent != nil && parent.ID != RootID; parent = x.tree.Entry(parent.Parent) {
		if !x.childrenComplete(parent) {
			return
		}
		if x.simulate {
			parent.simComplete = true
		} else {
			parent.Status = models.StatusDone
			parent.endOperation()
		}
	}
}

func (x *Executor) childrenComplete(e *Entry) bool {
	for _, id := range e.Children {
		child := x.tree.Entry(id)
		if x.simulate {
			if child.running && !child.simComplete {
				return false
			}
		} else if child.running {
			return false
		}
	}
	return true
}

// finishWorklist ends a run that reached the end of the worklist.
// Simulation flags are reset so the tree is unchanged by a simulation.
func (x *Executor) finishWorklist() {
	if x.simulate {
		for _, e := range x.tree.entries {
			e.simComplete = false
		}
	}
	x.clearWorklist()
}
