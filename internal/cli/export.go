package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/merge"
)

// ExportFlags holds export command flags
type ExportFlags struct {
	TreeFlags
	File string
}

var exportFlags ExportFlags

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export A B [C]",
		Short: "Export the comparison state",
		Long: `Compare two or three folders and write the state of every entry as
key=value blocks. Edit the operations and pass the file back to compare
or merge with --state.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runExport,
	}

	addTreeFlags(cmd, &exportFlags.TreeFlags)
	cmd.Flags().StringVarP(&exportFlags.File, "file", "o", "", "write the state to file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tc, err := buildSession(ctx, cmd, args, &exportFlags.TreeFlags, nil)
	if err != nil {
		return err
	}
	defer tc.Close()

	if exportFlags.File == "" || exportFlags.File == "-" {
		return tc.tree().WriteState(cmd.OutOrStdout())
	}

	if err := merge.SaveStateFile(exportFlags.File, tc.tree()); err != nil {
		return err
	}
	if !tc.cfg.Output.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "State of %d entries written to %s\n", len(tc.tree().StateRecords()), exportFlags.File)
	}
	return nil
}
