package config

import (
	"fmt"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/scan"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// Config represents the application configuration
type Config struct {
	Scan        ScanConfig        `yaml:"scan"`
	Compare     CompareConfig     `yaml:"compare"`
	Merge       MergeConfig       `yaml:"merge"`
	Remote      RemoteConfig      `yaml:"remote"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ScanConfig holds directory scanning settings. Patterns are
// ";"-separated globs.
type ScanConfig struct {
	Recursive       bool   `yaml:"recursive"`
	FindHidden      bool   `yaml:"find_hidden"`
	FilePattern     string `yaml:"file_pattern"`
	FileAntiPattern string `yaml:"file_anti_pattern"`
	DirAntiPattern  string `yaml:"dir_anti_pattern"`
	FollowFileLinks bool   `yaml:"follow_file_links"`
	FollowDirLinks  bool   `yaml:"follow_dir_links"`
	UseCvsIgnore    bool   `yaml:"use_cvs_ignore"`
	UseGitIgnore    bool   `yaml:"use_git_ignore"`
	CaseSensitive   bool   `yaml:"case_sensitive"`
}

// CompareConfig holds file comparison settings
type CompareConfig struct {
	Method          compare.Method `yaml:"method"`
	WhitespaceEqual bool           `yaml:"whitespace_equal"`
	BufferSize      int            `yaml:"buffer_size"`
}

// MergeConfig holds merge policies
type MergeConfig struct {
	SyncMode        bool   `yaml:"sync_mode"`
	CopyNewer       bool   `yaml:"copy_newer"`
	CreateBackups   bool   `yaml:"create_backups"`
	BackupExtension string `yaml:"backup_extension"`
	// Tool is the single-file merge command with {A} {B} {C} {DEST} placeholders
	Tool string `yaml:"tool"`
}

// RemoteConfig holds SFTP connection settings
type RemoteConfig struct {
	Port            int    `yaml:"port"`
	KeyFile         string `yaml:"key_file"`
	InsecureHostKey bool   `yaml:"insecure_host_key"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BandwidthLimit int64 `yaml:"bandwidth_limit"` // bytes per second, 0 = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	s := scan.DefaultConfig()
	m := merge.DefaultConfig()
	return &Config{
		Scan: ScanConfig{
			Recursive:       s.Recursive,
			FindHidden:      s.FindHidden,
			FilePattern:     s.FilePattern,
			FileAntiPattern: s.FileAntiPattern,
			DirAntiPattern:  s.DirAntiPattern,
			CaseSensitive:   s.CaseSensitive,
		},
		Compare: CompareConfig{
			Method:     compare.MethodBinary,
			BufferSize: compare.DefaultBufferSize,
		},
		Merge: MergeConfig{
			CreateBackups:   m.CreateBackups,
			BackupExtension: m.BackupExtension,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "text",
			Level:   "info",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := compare.ParseMethod(string(c.Compare.Method)); err != nil {
		return err
	}

	if c.Compare.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "compare.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Merge.CreateBackups && c.Merge.BackupExtension == "" {
		return &models.ValidationError{
			Field:   "merge.backup_extension",
			Message: "must not be empty when backups are enabled",
		}
	}

	if c.Remote.Port < 0 || c.Remote.Port > 65535 {
		return &models.ValidationError{
			Field:   "remote.port",
			Message: fmt.Sprintf("invalid port %d", c.Remote.Port),
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}

// ScanOptions returns the scanner settings
func (c *Config) ScanOptions() scan.Config {
	return scan.Config{
		Recursive:       c.Scan.Recursive,
		FindHidden:      c.Scan.FindHidden,
		FilePattern:     c.Scan.FilePattern,
		FileAntiPattern: c.Scan.FileAntiPattern,
		DirAntiPattern:  c.Scan.DirAntiPattern,
		FollowDirLinks:  c.Scan.FollowDirLinks,
		UseCvsIgnore:    c.Scan.UseCvsIgnore,
		UseGitIgnore:    c.Scan.UseGitIgnore,
		CaseSensitive:   c.Scan.CaseSensitive,
	}
}

// CompareOptions returns the comparator settings. Full analysis has no
// comparator; see FullAnalysis.
func (c *Config) CompareOptions(wrapper compare.ReaderWrapper) compare.Options {
	return compare.Options{
		Method:          c.Compare.Method,
		FollowFileLinks: c.Scan.FollowFileLinks,
		BufferSize:      c.Compare.BufferSize,
		ReaderWrapper:   wrapper,
	}
}

// FullAnalysis reports whether files are compared with a diff analyzer
func (c *Config) FullAnalysis() bool {
	return c.Compare.Method == compare.MethodFullAnalysis
}

// MergeOptions returns the merge policies
func (c *Config) MergeOptions() merge.Config {
	return merge.Config{
		SyncMode:        c.Merge.SyncMode,
		CopyNewer:       c.Merge.CopyNewer,
		CreateBackups:   c.Merge.CreateBackups,
		BackupExtension: c.Merge.BackupExtension,
		FollowFileLinks: c.Scan.FollowFileLinks,
		FollowDirLinks:  c.Scan.FollowDirLinks,
	}
}

// SSHOptions returns the settings for remote roots
func (c *Config) SSHOptions() storage.SSHOptions {
	return storage.SSHOptions{
		Port:            c.Remote.Port,
		KeyFile:         c.Remote.KeyFile,
		InsecureHostKey: c.Remote.InsecureHostKey,
	}
}

// LoggerOptions returns the logger settings
func (c *Config) LoggerOptions() logging.Config {
	return logging.Config{
		Format:     logging.Format(c.Logging.Format),
		Level:      logging.ParseLevel(c.Logging.Level),
		Path:       c.Logging.File,
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 3,
	}
}
