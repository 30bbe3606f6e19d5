package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// maxCompareErrors is the number of failed comparisons after which a build gives up
const maxCompareErrors = 30

// ErrTooManyErrors is returned by Build when too many comparisons failed
var ErrTooManyErrors = errors.New("aborting due to too many errors")

// BuildOptions configures how entries are compared
type BuildOptions struct {
	// Comparator decides file equality in the fast modes
	Comparator compare.Comparator

	// Analyzer, when set, replaces Comparator with a full analysis
	Analyzer compare.DiffAnalyzer

	// WhitespaceEqual treats files whose only differences are whitespace as equal
	// in full analysis
	WhitespaceEqual bool

	// IgnoreCase pairs entries whose names differ only in case. The name
	// seen in A, then B, then C is kept.
	IgnoreCase bool
}

// Builder builds comparison trees from scan results
type Builder struct {
	opts     BuildOptions
	logger   logging.Logger
	progress models.ProgressSink
}

// NewBuilder creates a builder. logger and progress may be nil.
func NewBuilder(opts BuildOptions, logger logging.Logger, progress models.ProgressSink) *Builder {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if progress == nil {
		progress = models.NullProgress{}
	}
	return &Builder{
		opts:     opts,
		logger:   logger.WithFields(logging.Fields{"component": "compare"}),
		progress: progress,
	}
}

// Build merges the scanned entries of A, B and C into one tree keyed by
// relative path, then computes equality and ages. entriesC is ignored
// when roots.C is nil.
func (b *Builder) Build(ctx context.Context, roots Roots, entriesA, entriesB, entriesC []*storage.FileNode) (*Tree, error) {
	if b.opts.Comparator == nil && b.opts.Analyzer == nil {
		return nil, fmt.Errorf("no comparator configured")
	}

	t := newTree(roots)
	t.ignoreCase = b.opts.IgnoreCase
	lists := [3][]*storage.FileNode{entriesA, entriesB, entriesC}
	if roots.C == nil {
		lists[SideC] = nil
	}
	for _, s := range sides {
		for _, node := range lists[s] {
			if node.RelPath() == "" {
				continue
			}
			t.ensure(node.RelPath()).Nodes[s] = node
		}
	}

	// Parents are compared before their children
	ordered := make([]*Entry, len(t.entries))
	copy(ordered, t.entries)
	paths := make([][]string, len(t.entries))
	for i := range t.entries {
		if sub := t.SubPath(EntryID(i)); sub != "" {
			paths[i] = strings.Split(sub, "/")
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return lessSegments(paths[ordered[i].ID], paths[ordered[j].ID])
	})

	total := len(ordered)
	for i, e := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.progress.Progress(models.ProgressUpdate{Phase: models.PhaseCompare, Path: t.SubPath(e.ID), Current: i + 1, Total: total})

		if err := b.compareEntry(ctx, e); err != nil {
			if storage.IsCancelled(err) {
				return nil, err
			}
			t.CompareErrors = append(t.CompareErrors, fmt.Errorf("%s: %w", t.SubPath(e.ID), err))
			b.logger.Warn(ctx, "Comparison failed", logging.Fields{"path": t.SubPath(e.ID), "error": err.Error()})
			if len(t.CompareErrors) >= maxCompareErrors {
				b.logger.Error(ctx, "Too many comparison errors", ErrTooManyErrors, nil)
				return nil, ErrTooManyErrors
			}
		}
		e.updateAge()
	}

	// Directories and links are equal by default; unequal descendants then
	// clear the equality of their ancestors
	threeWay := roots.ThreeWay()
	t.Walk(RootID, func(e *Entry) bool {
		if e.HasDir() {
			e.updateDirectoryOrLink()
		}
		equal := e.EqualAB && (!threeWay || e.EqualAC)
		if !equal {
			t.updateParents(e)
		}
		return true
	})

	t.sortChildren()

	status := t.DirStatus()
	b.progress.Progress(models.ProgressUpdate{Phase: models.PhaseCompare, Current: total, Total: total, Done: true})
	b.logger.Info(ctx, "Comparison completed", logging.Fields{
		"files":       status.Files,
		"dirs":        status.Dirs,
		"equal_files": status.EqualFiles,
		"errors":      len(t.CompareErrors),
	})

	return t, nil
}

func lessSegments(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// compareEntry sets the equality flags and ages of e. The flags of a pair
// whose comparison fails stay false and the error is returned after the
// remaining pairs are done.
func (b *Builder) compareEntry(ctx context.Context, e *Entry) error {
	var firstErr error

	if b.opts.Analyzer != nil {
		firstErr = b.analyze(ctx, e)
	} else {
		fileEqual := func(x, y Side) bool {
			if e.IsDir(x) || e.IsDir(y) {
				return true
			}
			result, err := b.opts.Comparator.Compare(ctx, e.Node(x), e.Node(y))
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return false
			}
			return result.Equal()
		}

		if e.Exists(SideA) && e.Exists(SideB) {
			e.EqualAB = fileEqual(SideA, SideB)
		}
		if e.Exists(SideA) && e.Exists(SideC) {
			e.EqualAC = fileEqual(SideA, SideC)
		}
		if e.Exists(SideB) && e.Exists(SideC) {
			if e.EqualAB && e.EqualAC {
				e.EqualBC = true
			} else {
				e.EqualBC = fileEqual(SideB, SideC)
			}
		}
	}

	e.forceTypeEquality()
	e.calcAges()
	return firstErr
}

func (b *Builder) analyze(ctx context.Context, e *Entry) error {
	both := func(x, y Side) bool { return e.Exists(x) && e.Exists(y) }

	if e.HasDir() {
		e.EqualAB = both(SideA, SideB)
		e.EqualAC = both(SideA, SideC)
		e.EqualBC = both(SideB, SideC)
		return nil
	}

	present := func(s Side) *storage.FileNode {
		if e.Exists(s) {
			return e.Node(s)
		}
		return nil
	}
	stats, err := b.opts.Analyzer.Analyze(ctx, present(SideA), present(SideB), present(SideC))
	if err != nil {
		return err
	}

	if b.opts.WhitespaceEqual && stats.NonWhitespaceConflicts() == 0 {
		e.EqualAB = both(SideA, SideB)
		e.EqualAC = both(SideA, SideC)
		e.EqualBC = both(SideB, SideC)
		return nil
	}
	e.EqualAB = stats.BinaryEqualAB
	e.EqualAC = stats.BinaryEqualAC
	e.EqualBC = stats.BinaryEqualBC
	return nil
}
