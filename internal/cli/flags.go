package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/dirmerge/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// TreeFlags holds the flags of every command that compares directories.
// Only flags set on the command line override the configuration file.
type TreeFlags struct {
	Dest            string
	Method          string
	WhitespaceEqual bool
	Include         string
	Exclude         string
	ExcludeDirs     string
	Hidden          bool
	NoRecursive     bool
	FollowLinks     bool
	GitIgnore       bool
	CvsIgnore       bool
	Bandwidth       string
	State           string

	// Remote roots
	Port            int
	KeyFile         string
	InsecureHostKey bool

	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

func addTreeFlags(cmd *cobra.Command, f *TreeFlags) {
	cmd.Flags().StringVarP(&f.Dest, "dest", "d", "", "destination directory (default: C, or B for two folders)")
	cmd.Flags().StringVarP(&f.Method, "method", "m", "", "comparison method: binary, full-analysis, trust-date, trust-date-fallback-binary, trust-size, hash")
	cmd.Flags().BoolVar(&f.WhitespaceEqual, "whitespace-equal", false, "treat files differing only in whitespace as equal (full-analysis)")
	cmd.Flags().StringVar(&f.Include, "include", "", "\";\"-separated file patterns to compare (default \"*\")")
	cmd.Flags().StringVar(&f.Exclude, "exclude", "", "\";\"-separated file patterns to skip")
	cmd.Flags().StringVar(&f.ExcludeDirs, "exclude-dirs", "", "\";\"-separated directory patterns to skip")
	cmd.Flags().BoolVar(&f.Hidden, "hidden", false, "include hidden files and directories")
	cmd.Flags().BoolVar(&f.NoRecursive, "no-recursive", false, "compare only the top level")
	cmd.Flags().BoolVar(&f.FollowLinks, "follow-links", false, "follow file and directory links")
	cmd.Flags().BoolVar(&f.GitIgnore, "git-ignore", false, "honour .gitignore files")
	cmd.Flags().BoolVar(&f.CvsIgnore, "cvs-ignore", false, "honour .cvsignore files and $CVSIGNORE")
	cmd.Flags().StringVarP(&f.Bandwidth, "bandwidth", "b", "", "bandwidth limit for reads and copies (e.g., \"10MB\", \"512KiB\")")
	cmd.Flags().StringVar(&f.State, "state", "", "apply operations from an exported state file")

	cmd.Flags().IntVar(&f.Port, "port", 0, "SSH port for remote roots (default 22)")
	cmd.Flags().StringVar(&f.KeyFile, "key-file", "", "SSH private key for remote roots")
	cmd.Flags().BoolVar(&f.InsecureHostKey, "insecure-host-key", false, "skip SSH host key verification")

	cmd.Flags().StringVar(&f.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&f.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&f.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
}
