// Package scan lists a root directory into the flat entry list a comparison tree is built from.
package scan

import (
	"context"
	"errors"

	"github.com/sdejongh/dirmerge/pkg/ignore"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// Config selects which entries a scan returns
type Config struct {
	Recursive       bool
	FindHidden      bool
	FilePattern     string
	FileAntiPattern string
	DirAntiPattern  string
	FollowDirLinks  bool
	UseCvsIgnore    bool
	UseGitIgnore    bool
	CaseSensitive   bool
}

// DefaultConfig returns the scan defaults
func DefaultConfig() Config {
	return Config{
		Recursive:       true,
		FindHidden:      true,
		FilePattern:     "*",
		FileAntiPattern: "*.orig;*.o;*.obj;*.rej;*.bak",
		DirAntiPattern:  "CVS;.deps;.svn;.hg;.git",
		CaseSensitive:   true,
	}
}

// Result is the outcome of scanning one root
type Result struct {
	Root    *storage.FileNode
	Entries []*storage.FileNode

	// Partial is set when some branches could not be listed
	Partial  bool
	Failures []error
}

// Scanner lists directory trees
type Scanner struct {
	config   Config
	logger   logging.Logger
	progress models.ProgressSink

	// NewIgnore builds the ignore list for one scan; nil uses the configured adapters
	NewIgnore func() storage.IgnoreList
}

// NewScanner creates a scanner. logger and progress may be nil.
func NewScanner(config Config, logger logging.Logger, progress models.ProgressSink) *Scanner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if progress == nil {
		progress = models.NullProgress{}
	}
	return &Scanner{
		config:   config,
		logger:   logger.WithFields(logging.Fields{"component": "scan"}),
		progress: progress,
	}
}

func (s *Scanner) ignoreList() storage.IgnoreList {
	if s.NewIgnore != nil {
		return s.NewIgnore()
	}
	composite := ignore.NewComposite()
	if s.config.UseCvsIgnore {
		composite.Add(ignore.NewCVS())
	}
	if s.config.UseGitIgnore {
		composite.Add(ignore.NewGit())
	}
	if composite.Len() == 0 {
		return nil
	}
	return composite
}

// Scan lists root. A failure to read root itself is an error; failures below
// it only mark the result as partial.
func (s *Scanner) Scan(ctx context.Context, root *storage.FileNode) (*Result, error) {
	s.logger.Info(ctx, "Scanning directory", logging.Fields{"root": root.String()})

	dirs := 0
	opts := storage.ListOptions{
		Recursive:       s.config.Recursive,
		FindHidden:      s.config.FindHidden,
		FilePattern:     s.config.FilePattern,
		FileAntiPattern: s.config.FileAntiPattern,
		DirAntiPattern:  s.config.DirAntiPattern,
		FollowDirLinks:  s.config.FollowDirLinks,
		CaseSensitive:   s.config.CaseSensitive,
		OnDir: func(dir *storage.FileNode) {
			dirs++
			s.progress.Progress(models.ProgressUpdate{Phase: models.PhaseScan, Path: dir.String(), Current: dirs})
		},
	}

	entries, err := root.List(ctx, opts, s.ignoreList())
	result := &Result{Root: root, Entries: entries}

	var partial *storage.PartialListError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		result.Partial = true
		result.Failures = partial.Failures
		for _, f := range partial.Failures {
			s.logger.Warn(ctx, "Directory could not be listed", logging.Fields{"error": f.Error()})
		}
	default:
		s.logger.Error(ctx, "Scan failed", err, logging.Fields{"root": root.String()})
		return nil, err
	}

	s.progress.Progress(models.ProgressUpdate{Phase: models.PhaseScan, Path: root.String(), Current: dirs, Done: true})
	s.logger.Info(ctx, "Scan completed", logging.Fields{
		"root":    root.String(),
		"entries": len(result.Entries),
		"dirs":    dirs,
		"partial": result.Partial,
	})

	return result, nil
}
