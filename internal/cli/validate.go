package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/internal/platform"
	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/config"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// validateRoots checks the folder arguments and the destination before
// anything is opened. Remote locations are checked when they are opened.
func validateRoots(args []string, dest string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("expected two or three folders, got %d", len(args))
	}

	var local []string
	for _, arg := range args {
		if storage.ParseLocation(arg).IsRemote() {
			continue
		}
		if err := platform.ValidatePath(arg); err != nil {
			return err
		}
		local = append(local, arg)
	}

	for i := 0; i < len(local); i++ {
		for j := i + 1; j < len(local); j++ {
			if platform.SamePath(local[i], local[j]) {
				return fmt.Errorf("folders cannot be the same: %s", platform.NormalizePath(local[i]))
			}
		}
	}

	if dest == "" || storage.ParseLocation(dest).IsRemote() {
		return nil
	}
	if err := platform.ValidatePath(dest); err != nil {
		return err
	}
	for _, root := range local {
		if platform.IsWithin(root, dest) {
			return fmt.Errorf("destination cannot be inside %s", root)
		}
	}
	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with the command-line flags
// that were set explicitly
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config, f *TreeFlags) error {
	changed := cmd.Flags().Changed

	// Comparison
	if changed("method") {
		method, err := compare.ParseMethod(f.Method)
		if err != nil {
			return err
		}
		cfg.Compare.Method = method
	}
	if changed("whitespace-equal") {
		cfg.Compare.WhitespaceEqual = f.WhitespaceEqual
	}

	// Scanning
	if changed("include") {
		cfg.Scan.FilePattern = f.Include
	}
	if changed("exclude") {
		cfg.Scan.FileAntiPattern = f.Exclude
	}
	if changed("exclude-dirs") {
		cfg.Scan.DirAntiPattern = f.ExcludeDirs
	}
	if changed("hidden") {
		cfg.Scan.FindHidden = f.Hidden
	}
	if changed("no-recursive") {
		cfg.Scan.Recursive = !f.NoRecursive
	}
	if changed("follow-links") {
		cfg.Scan.FollowFileLinks = f.FollowLinks
		cfg.Scan.FollowDirLinks = f.FollowLinks
	}
	if changed("git-ignore") {
		cfg.Scan.UseGitIgnore = f.GitIgnore
	}
	if changed("cvs-ignore") {
		cfg.Scan.UseCvsIgnore = f.CvsIgnore
	}

	// Bandwidth limit
	if changed("bandwidth") {
		limit, err := parseBandwidth(f.Bandwidth)
		if err != nil {
			return err
		}
		cfg.Performance.BandwidthLimit = limit
	}

	// Remote roots
	if changed("port") {
		cfg.Remote.Port = f.Port
	}
	if changed("key-file") {
		cfg.Remote.KeyFile = f.KeyFile
	}
	if changed("insecure-host-key") {
		cfg.Remote.InsecureHostKey = f.InsecureHostKey
	}

	// Logging: a log file enables logging
	if changed("log-file") {
		cfg.Logging.Enabled = f.LogFile != ""
		cfg.Logging.File = f.LogFile
	}
	if changed("log-format") {
		cfg.Logging.Format = f.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}

	// Output format
	if output := cmd.Flags().Lookup("output"); output != nil && output.Changed {
		cfg.Output.Format = output.Value.String()
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Enable progress in verbose mode
	if globalFlags.Verbose {
		cfg.Output.Progress = true
	}

	return cfg.Validate()
}

// parseBandwidth reads a byte rate such as "10MB" or "512KiB"; empty or
// zero is unlimited
func parseBandwidth(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth limit %q: %w", s, err)
	}
	return int64(n), nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config) (logging.Logger, error) {
	// Logging disabled: return null logger
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	return logging.NewZeroLogger(cfg.LoggerOptions())
}
