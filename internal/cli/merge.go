package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/config"
	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/output"
)

// maxRetries bounds how often --on-error retry runs the same failed entry
const maxRetries = 3

// MergeFlags holds merge command flags
type MergeFlags struct {
	TreeFlags
	Output    string
	Sync      bool
	CopyNewer bool
	NoBackup  bool
	Simulate  bool
	Yes       bool
	OnError   string
	Tool      string
}

var mergeFlags MergeFlags

// NewMergeCommand creates the merge command
func NewMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge A B [C]",
		Short: "Merge two or three folders",
		Long: `Compare two or three folders and carry out the suggested operations.
With three folders A is the common base and the result goes to C unless
--dest is given. With two folders the result goes to B, or to both A and B
in sync mode. Files changed on more than one side are handed to the merge
tool configured in merge.tool, e.g. "meld {A} {B} {C} -o {DEST}".

Exit status: 0 complete, 1 waiting for a merge, 2 failed, 3 cancelled.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runMerge,
	}

	addTreeFlags(cmd, &mergeFlags.TreeFlags)
	cmd.Flags().StringVarP(&mergeFlags.Output, "output", "o", "human", "output format: human, json")
	cmd.Flags().BoolVar(&mergeFlags.Sync, "sync", false, "synchronise: merge results are written to both A and B")
	cmd.Flags().BoolVar(&mergeFlags.CopyNewer, "copy-newer", false, "copy the newer file instead of merging (sync mode)")
	cmd.Flags().BoolVar(&mergeFlags.NoBackup, "no-backup", false, "do not keep a backup of overwritten or deleted files")
	cmd.Flags().BoolVar(&mergeFlags.Simulate, "simulate", false, "only show what would be done")
	cmd.Flags().BoolVarP(&mergeFlags.Yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().StringVar(&mergeFlags.OnError, "on-error", "", "continue after a failed operation: retry, skip, accept (default: stop)")
	cmd.Flags().StringVar(&mergeFlags.Tool, "tool", "", "single file merge command with {A} {B} {C} {DEST} placeholders")

	return cmd
}

// applyMergeFlags overrides the merge policies set on the command line
func applyMergeFlags(cmd *cobra.Command) func(*config.Config) error {
	return func(cfg *config.Config) error {
		changed := cmd.Flags().Changed
		if changed("sync") {
			cfg.Merge.SyncMode = mergeFlags.Sync
		}
		if changed("copy-newer") {
			cfg.Merge.CopyNewer = mergeFlags.CopyNewer
		}
		if changed("no-backup") {
			cfg.Merge.CreateBackups = !mergeFlags.NoBackup
		}
		if changed("tool") {
			cfg.Merge.Tool = mergeFlags.Tool
		}
		return nil
	}
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var onError *merge.ResumeChoice
	if mergeFlags.OnError != "" {
		choice, err := merge.ParseResumeChoice(mergeFlags.OnError)
		if err != nil {
			return err
		}
		onError = &choice
	}

	tc, err := buildSession(ctx, cmd, args, &mergeFlags.TreeFlags, applyMergeFlags(cmd))
	if err != nil {
		return err
	}
	defer tc.Close()
	tc.warnPartial(cmd.ErrOrStderr())

	formatter, err := output.New(tc.cfg.Output.Format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	quiet := tc.cfg.Output.Quiet

	if globalFlags.Verbose && !quiet {
		if err := formatter.Comparison(out, output.NewComparison(tc.tree())); err != nil {
			return fmt.Errorf("failed to write comparison: %w", err)
		}
	}

	if !mergeFlags.Simulate && !mergeFlags.Yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), tc.tree())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Merge cancelled.")
			return &ExitError{Code: models.RunCancelled.ExitCode()}
		}
	}

	tool := &toolMerger{
		template: tc.cfg.Merge.Tool,
		stdin:    cmd.InOrStdin(),
		stdout:   cmd.ErrOrStderr(),
		stderr:   cmd.ErrOrStderr(),
		logger:   tc.logger,
	}
	executor := merge.NewExecutor(tc.session, merge.ExecutorOptions{
		Simulate: mergeFlags.Simulate,
		Merger:   tool,
		Limiter:  tc.limiter,
		Logger:   tc.logger,
		Progress: tc.progress,
	})

	report, err := driveExecutor(ctx, executor, tool, onError)
	if err != nil {
		var conflict *merge.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("%w (choose an operation for it in an exported state file and pass it with --state)", err)
		}
		return fmt.Errorf("merge failed: %w", err)
	}

	if !quiet || report.Status != models.RunComplete {
		if err := formatter.Report(out, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if code := report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// driveExecutor runs the executor until the tree is done. Single-file
// merges finish inside the tool, so a waiting run is confirmed and
// continued. A failed run is resumed with onError when it is set.
func driveExecutor(ctx context.Context, x *merge.Executor, tool *toolMerger, onError *merge.ResumeChoice) (*models.RunReport, error) {
	report, err := x.Run(ctx)
	if err != nil {
		return nil, err
	}
	total := *report

	retries := 0
	for {
		switch report.Status {
		case models.RunWaiting:
			if saveErr := x.MergeResultSaved(ctx, tool.saved); saveErr != nil {
				total.Errors = append(total.Errors, runError(saveErr))
				if onError == nil {
					total.Status = models.RunFailed
					total.PendingMerge = ""
					return &total, nil
				}
				report, err = x.Resume(ctx, *onError)
			} else {
				total.Done++
				report, err = x.Run(ctx)
			}

		case models.RunFailed:
			if onError == nil {
				return &total, nil
			}
			if *onError == merge.ResumeRetry {
				if retries >= maxRetries {
					return &total, nil
				}
				retries++
			}
			report, err = x.Resume(ctx, *onError)

		default:
			return &total, nil
		}

		if err != nil {
			return nil, err
		}
		if report.Status != models.RunFailed {
			retries = 0
		}
		accumulate(&total, report)
	}
}

// accumulate adds the results of a continued run to total
func accumulate(total, r *models.RunReport) {
	total.Processed += r.Processed
	total.Done += r.Done
	total.Skipped += r.Skipped
	total.Log = append(total.Log, r.Log...)
	total.Errors = append(total.Errors, r.Errors...)
	total.PendingMerge = r.PendingMerge
	total.Status = r.Status
	total.EndTime = r.EndTime
	total.Duration = total.EndTime.Sub(total.StartTime)
}

func runError(err error) models.RunError {
	re := models.RunError{Error: err.Error(), Timestamp: time.Now()}
	var opErr *merge.OperationError
	if errors.As(err, &opErr) {
		re.Path = opErr.Path
		re.Operation = opErr.Operation
		re.Error = opErr.Err.Error()
	}
	return re
}

// confirm asks before the tree is changed. Nothing to do needs no answer.
func confirm(in io.Reader, prompt io.Writer, tree *merge.Tree) (bool, error) {
	pending := 0
	for _, row := range tree.Rows() {
		if !row.Equal && row.Operation != models.OpNone {
			pending++
		}
	}
	if pending == 0 {
		return true, nil
	}

	fmt.Fprintf(prompt, "Apply %d operations to %s? [y/N] ", pending, tree.Roots().Dest)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
