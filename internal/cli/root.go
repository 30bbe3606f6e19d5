package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitError carries the process exit status of a command that finished
// without an error of its own, such as a comparison that found differences
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCommand creates the dirmerge command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dirmerge",
		Short: "Compare and merge directory trees",
		Long: `dirmerge compares two or three directory trees, suggests a merge
operation for every file and folder, and carries the operations out.
Folders may be local paths or remote host:path locations reached over SFTP.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewMergeCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
