package ignore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

const (
	cvsIgnoreFile = ".cvsignore"
	cvsIgnoreEnv  = "CVSIGNORE"

	// Patterns CVS ignores without configuration
	cvsDefaultPatterns = ". .. core RCSLOG tags TAGS RCS SCCS .make.state .nse_depinfo #* .#* " +
		"cvslog.* ,* CVS CVS.adm .del-* *.a *.olb *.o *.obj *.so *.Z *~ *.old *.elc *.ln " +
		"*.bak *.BAK *.orig *.rej *.exe _$* *$"
)

type cvsPatterns struct {
	exact   []string
	prefix  []string // "abc*"
	suffix  []string // "*abc"
	general []string
}

// CVS ignores entries the way CVS does: built-in patterns, then ~/.cvsignore,
// then $CVSIGNORE, then the directory's own .cvsignore. Patterns apply only
// to the directory they were loaded for. A "!" pattern drops everything
// collected for that directory so far.
type CVS struct {
	patterns map[string]*cvsPatterns

	HomeDir func() (string, error)
	Getenv  func(string) string
}

// NewCVS creates a CVS-style ignore list reading the user's home directory and environment
func NewCVS() *CVS {
	return &CVS{
		patterns: make(map[string]*cvsPatterns),
		HomeDir:  os.UserHomeDir,
		Getenv:   os.Getenv,
	}
}

// EnterDir loads the patterns for dir
func (c *CVS) EnterDir(ctx context.Context, dir string, entries []*storage.FileNode) {
	c.AddString(dir, cvsDefaultPatterns)

	if c.HomeDir != nil {
		if home, err := c.HomeDir(); err == nil {
			path := filepath.Join(home, cvsIgnoreFile)
			if node, err := storage.NewFileNode(ctx, storage.NewLocal(), path); err == nil && node.IsFile() {
				c.addFile(ctx, dir, node)
			}
		}
	}

	if c.Getenv != nil {
		if env := c.Getenv(cvsIgnoreEnv); env != "" {
			c.AddString(dir, env)
		}
	}

	for _, entry := range entries {
		if entry.Name() == cvsIgnoreFile && entry.IsFile() {
			c.addFile(ctx, dir, entry)
			break
		}
	}
}

func (c *CVS) addFile(ctx context.Context, dir string, node *storage.FileNode) {
	data, err := node.ReadAll(ctx)
	if err != nil {
		return
	}
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		c.AddPattern(dir, line)
	}
}

// AddString adds the space-separated patterns in s to dir
func (c *CVS) AddString(dir, s string) {
	for _, p := range strings.Split(s, " ") {
		c.AddPattern(dir, p)
	}
}

// AddPattern adds a single pattern to dir
func (c *CVS) AddPattern(dir, pattern string) {
	if pattern == "!" {
		delete(c.patterns, dir)
		return
	}
	if pattern == "" {
		return
	}

	set, ok := c.patterns[dir]
	if !ok {
		set = &cvsPatterns{}
		c.patterns[dir] = set
	}

	meta := strings.Count(pattern, "*") + strings.Count(pattern, "?")
	switch {
	case meta == 0:
		set.exact = append(set.exact, pattern)
	case meta == 1 && pattern[0] == '*':
		set.suffix = append(set.suffix, pattern[1:])
	case meta == 1 && pattern[len(pattern)-1] == '*':
		set.prefix = append(set.prefix, pattern[:len(pattern)-1])
	default:
		set.general = append(set.general, pattern)
	}
}

// Matches reports whether name in dir matches a pattern loaded for dir
func (c *CVS) Matches(dir, name string, caseSensitive bool) bool {
	set, ok := c.patterns[dir]
	if !ok {
		return false
	}

	fold := func(s string) string { return s }
	if !caseSensitive {
		fold = strings.ToLower
	}
	text := fold(name)

	for _, p := range set.exact {
		if fold(p) == text {
			return true
		}
	}
	for _, p := range set.prefix {
		if strings.HasPrefix(text, fold(p)) {
			return true
		}
	}
	for _, p := range set.suffix {
		if strings.HasSuffix(text, fold(p)) {
			return true
		}
	}
	for _, p := range set.general {
		if ok, err := doublestar.Match(fold(p), text); err == nil && ok {
			return true
		}
	}
	return false
}
