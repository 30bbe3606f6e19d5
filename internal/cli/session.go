package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/config"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/output"
	"github.com/sdejongh/dirmerge/pkg/scan"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// passwordEnv holds the SSH password for remote roots
const passwordEnv = "DIRMERGE_SSH_PASSWORD"

// treeContext is what compare, merge and export share: the configuration,
// the ambient services and the session over the comparison tree
type treeContext struct {
	cfg      *config.Config
	logger   logging.Logger
	progress models.ProgressSink
	pool     *storage.Pool
	limiter  *storage.Limiter
	session  *merge.Session

	// partial is set when a root could not be listed completely
	partial bool
}

// buildSession validates the arguments, loads the configuration and builds
// the comparison tree. adjust applies command-specific flags before the
// configuration is used. The caller must Close the result.
func buildSession(ctx context.Context, cmd *cobra.Command, args []string, f *TreeFlags, adjust func(*config.Config) error) (*treeContext, error) {
	if err := validateRoots(args, f.Dest); err != nil {
		return nil, err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cmd, cfg, f); err != nil {
		return nil, err
	}
	if adjust != nil {
		if err := adjust(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	// Create logger
	logger, err := createLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tc := &treeContext{
		cfg:      cfg,
		logger:   logger,
		progress: output.NewProgressSink(os.Stderr, cfg.Output.Progress && !cfg.Output.Quiet),
	}
	if limit := cfg.Performance.BandwidthLimit; limit > 0 {
		tc.limiter = storage.NewLimiter(limit)
		logger.Info(ctx, "Bandwidth limited", logging.Fields{"limit": humanize.Bytes(uint64(limit)) + "/s"})
	}

	sshOpts := cfg.SSHOptions()
	sshOpts.Password = os.Getenv(passwordEnv)
	tc.pool = storage.NewPool(sshOpts)

	if err := tc.build(ctx, args, f); err != nil {
		tc.Close()
		return nil, err
	}
	return tc, nil
}

func (tc *treeContext) build(ctx context.Context, args []string, f *TreeFlags) error {
	roots, err := tc.openRoots(ctx, args, f.Dest)
	if err != nil {
		return err
	}

	// Scan every root
	scanner := scan.NewScanner(tc.cfg.ScanOptions(), tc.logger, tc.progress)
	var entries [3][]*storage.FileNode
	for i, root := range []*storage.FileNode{roots.A, roots.B, roots.C} {
		if root == nil {
			continue
		}
		result, err := scanner.Scan(ctx, root)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", root, err)
		}
		entries[i] = result.Entries
		tc.partial = tc.partial || result.Partial
	}

	// Create comparator
	opts := merge.BuildOptions{
		WhitespaceEqual: tc.cfg.Compare.WhitespaceEqual,
		IgnoreCase:      !tc.cfg.Scan.CaseSensitive,
	}
	var wrapper compare.ReaderWrapper
	if limiter := tc.limiter; limiter != nil {
		wrapper = func(r io.Reader) io.Reader {
			return storage.ThrottleReader(ctx, r, limiter)
		}
	}
	if tc.cfg.FullAnalysis() {
		analyzer := compare.NewLineAnalyzer(tc.cfg.Compare.WhitespaceEqual)
		if wrapper != nil {
			analyzer.SetReaderWrapper(wrapper)
		}
		opts.Analyzer = analyzer
	} else {
		comparator, err := compare.New(tc.cfg.CompareOptions(wrapper))
		if err != nil {
			return err
		}
		opts.Comparator = comparator
	}

	tree, err := merge.NewBuilder(opts, tc.logger, tc.progress).Build(ctx, roots, entries[0], entries[1], entries[2])
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	tc.session, err = merge.NewSession(tree, tc.cfg.MergeOptions())
	if err != nil {
		return err
	}

	if f.State != "" {
		records, err := merge.LoadStateFile(f.State)
		if err != nil {
			return err
		}
		applied := tree.ApplyState(records)
		tc.logger.Info(ctx, "Applied saved state", logging.Fields{
			"file":    f.State,
			"records": len(records),
			"applied": applied,
		})
	}

	return nil
}

// openRoots opens the folder arguments and the optional destination
func (tc *treeContext) openRoots(ctx context.Context, args []string, dest string) (merge.Roots, error) {
	var roots merge.Roots
	nodes := []**storage.FileNode{&roots.A, &roots.B, &roots.C}
	for i, arg := range args {
		node, err := tc.pool.Open(ctx, arg)
		if err != nil {
			return roots, fmt.Errorf("failed to open %s: %w", arg, err)
		}
		*nodes[i] = node
	}

	if dest != "" {
		node, err := tc.pool.OpenDest(ctx, dest)
		if err != nil {
			return roots, fmt.Errorf("failed to open destination %s: %w", dest, err)
		}
		// A destination naming one of the inputs is that input
		for _, n := range []*storage.FileNode{roots.A, roots.B, roots.C} {
			if n != nil && n.Backend() == node.Backend() && n.Path() == node.Path() {
				node = n
			}
		}
		roots.Dest = node
	}
	return roots, nil
}

// warnPartial tells the user that some branches are missing from the tree
func (tc *treeContext) warnPartial(w io.Writer) {
	if tc.partial {
		fmt.Fprintln(w, "Warning: some folders could not be listed, the comparison is incomplete")
	}
}

func (tc *treeContext) tree() *merge.Tree {
	return tc.session.Tree()
}

// Close releases the connections, the progress display and the logger
func (tc *treeContext) Close() {
	if closer, ok := tc.progress.(interface{ Close() }); ok {
		closer.Close()
	}
	if tc.pool != nil {
		if err := tc.pool.Close(); err != nil {
			tc.logger.Warn(context.Background(), "Closing connections failed", logging.Fields{"error": err.Error()})
		}
	}
	tc.logger.Close()
}
