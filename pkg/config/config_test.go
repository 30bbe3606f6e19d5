package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "*.orig;*.o;*.obj;*.rej;*.bak", cfg.Scan.FileAntiPattern)
	assert.Equal(t, "CVS;.deps;.svn;.hg;.git", cfg.Scan.DirAntiPattern)
	assert.Equal(t, compare.MethodBinary, cfg.Compare.Method)
	assert.True(t, cfg.Merge.CreateBackups)
	assert.Equal(t, ".orig", cfg.Merge.BackupExtension)
	assert.False(t, cfg.FullAnalysis())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"unknown method", func(c *Config) { c.Compare.Method = "fuzzy" }, "compare.method"},
		{"small buffer", func(c *Config) { c.Compare.BufferSize = 10 }, "compare.buffer_size"},
		{"empty backup extension", func(c *Config) { c.Merge.BackupExtension = "" }, "merge.backup_extension"},
		{"bad port", func(c *Config) { c.Remote.Port = 70000 }, "remote.port"},
		{"negative bandwidth", func(c *Config) { c.Performance.BandwidthLimit = -1 }, "performance.bandwidth_limit"},
		{"output format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			var ve *models.ValidationError
			require.True(t, errors.As(cfg.Validate(), &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	t.Run("backups disabled without extension", func(t *testing.T) {
		cfg := Default()
		cfg.Merge.CreateBackups = false
		cfg.Merge.BackupExtension = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
compare:
  method: full-analysis
  whitespace_equal: true
merge:
  sync_mode: true
  tool: "meld {A} {B} {DEST}"
performance:
  bandwidth_limit: 1048576
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.FullAnalysis())
	assert.True(t, cfg.Compare.WhitespaceEqual)
	assert.True(t, cfg.Merge.SyncMode)
	assert.Equal(t, "meld {A} {B} {DEST}", cfg.Merge.Tool)
	assert.Equal(t, int64(1048576), cfg.Performance.BandwidthLimit)

	// Unset values keep their defaults
	assert.Equal(t, ".orig", cfg.Merge.BackupExtension)
	assert.Equal(t, compare.DefaultBufferSize, cfg.Compare.BufferSize)
	assert.Equal(t, logging.DebugLevel, cfg.LoggerOptions().Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("merge: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("output:\n  format: xml\n"), 0644))
	_, err = LoadFromFile(invalid)
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Merge.CopyNewer = true
	cfg.Remote.Port = 2222
	cfg.Scan.UseGitIgnore = true
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Scan.FollowFileLinks = true
	cfg.Scan.UseCvsIgnore = true
	cfg.Merge.SyncMode = true
	cfg.Remote.KeyFile = "/home/me/.ssh/id_ed25519"

	assert.True(t, cfg.ScanOptions().UseCvsIgnore)
	assert.True(t, cfg.CompareOptions(nil).FollowFileLinks)

	m := cfg.MergeOptions()
	assert.True(t, m.SyncMode)
	assert.True(t, m.FollowFileLinks)
	assert.Equal(t, ".orig", m.BackupExtension)

	assert.Equal(t, "/home/me/.ssh/id_ed25519", cfg.SSHOptions().KeyFile)
	assert.Equal(t, logging.FormatText, cfg.LoggerOptions().Format)
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Decode(strings.NewReader("merge:\n  sync: true\n"))
	assert.ErrorContains(t, err, "sync")
}

func TestDefaultConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(PathEnv, path)

	got, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// A missing file gives the defaults
	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0644))
	cfg, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}
