package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/output"
)

// CompareFlags holds compare command flags
type CompareFlags struct {
	TreeFlags
	Output     string
	DiffReport string
	DiffFormat string
}

var compareFlags CompareFlags

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare A B [C]",
		Short: "Compare two or three folders",
		Long: `Compare two or three folders and show the merge operation suggested
for every file and folder. With three folders, A is the common base.

Exits with status 1 when differences were found.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runCompare,
	}

	addTreeFlags(cmd, &compareFlags.TreeFlags)
	cmd.Flags().StringVarP(&compareFlags.Output, "output", "o", "human", "output format: human, json")
	cmd.Flags().StringVar(&compareFlags.DiffReport, "diff-report", "", "write differences report to file")
	cmd.Flags().StringVar(&compareFlags.DiffFormat, "diff-format", "human", "differences report format: human, json")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tc, err := buildSession(ctx, cmd, args, &compareFlags.TreeFlags, nil)
	if err != nil {
		return err
	}
	defer tc.Close()
	tc.warnPartial(cmd.ErrOrStderr())

	formatter, err := output.New(tc.cfg.Output.Format)
	if err != nil {
		return err
	}

	comparison := output.NewComparison(tc.tree())
	if !tc.cfg.Output.Quiet {
		if err := formatter.Comparison(cmd.OutOrStdout(), comparison); err != nil {
			return fmt.Errorf("failed to write comparison: %w", err)
		}
	}

	// Write differences report if requested
	if compareFlags.DiffReport != "" {
		if err := output.WriteDifferencesReport(comparison, compareFlags.DiffReport, compareFlags.DiffFormat); err != nil {
			return fmt.Errorf("failed to write differences report: %w", err)
		}
	}

	if len(comparison.Differences()) > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}
