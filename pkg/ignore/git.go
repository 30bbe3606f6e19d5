package ignore

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

const gitIgnoreFile = ".gitignore"

type gitPattern struct {
	glob     string
	dirOnly  bool // declared with a trailing "/"
	anchored bool // relative to the declaring directory: a leading or inner "/"
}

// Git ignores entries listed in .gitignore files. Patterns apply to the
// directory declaring them and all of its descendants; a pattern with a
// leading or inner "/" only matches paths relative to that directory. Negated patterns
// are not supported and are skipped.
type Git struct {
	patterns map[string][]gitPattern
}

// NewGit creates an empty git-style ignore list
func NewGit() *Git {
	return &Git{patterns: make(map[string][]gitPattern)}
}

// EnterDir loads dir's .gitignore if entries contains one
func (g *Git) EnterDir(ctx context.Context, dir string, entries []*storage.FileNode) {
	for _, entry := range entries {
		if entry.Name() != gitIgnoreFile || !entry.IsFile() {
			continue
		}
		data, err := entry.ReadAll(ctx)
		if err != nil {
			return
		}
		g.AddLines(dir, string(data))
		return
	}
}

// AddLines adds the patterns in a .gitignore body to dir
func (g *Git) AddLines(dir, lines string) {
	for _, line := range strings.FieldsFunc(lines, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}

		p := gitPattern{glob: line}
		if strings.HasSuffix(p.glob, "/") {
			p.dirOnly = true
			p.glob = strings.TrimRight(p.glob, "/")
		}
		p.anchored = strings.Contains(p.glob, "/")
		p.glob = strings.TrimPrefix(p.glob, "/")
		if p.glob == "" || !doublestar.ValidatePattern(p.glob) {
			continue
		}
		g.patterns[dir] = append(g.patterns[dir], p)
	}
}

// Matches reports whether name in dir is ignored by a pattern declared in dir or an ancestor
func (g *Git) Matches(dir, name string, caseSensitive bool) bool {
	for declDir, patterns := range g.patterns {
		rel, ok := relativeTo(dir, declDir)
		if !ok {
			continue
		}
		candidate := name
		if rel != "" {
			candidate = rel + "/" + name
		}
		for _, p := range patterns {
			if p.matches(candidate, name, caseSensitive) {
				return true
			}
		}
	}
	return false
}

func (p gitPattern) matches(candidate, name string, caseSensitive bool) bool {
	glob := p.glob
	if !caseSensitive {
		glob = strings.ToLower(glob)
		candidate = strings.ToLower(candidate)
		name = strings.ToLower(name)
	}

	if !p.anchored && !p.dirOnly {
		ok, _ := doublestar.Match(glob, name)
		return ok
	}

	// Anything below a matching directory is ignored too. Anchored globs
	// are tried on each leading part of candidate, the others on each
	// path segment.
	segments := strings.Split(candidate, "/")
	for i, segment := range segments {
		target := segment
		if p.anchored {
			target = strings.Join(segments[:i+1], "/")
		}
		if ok, _ := doublestar.Match(glob, target); ok {
			return true
		}
	}
	return false
}

// relativeTo returns dir relative to base when dir is base or below it
func relativeTo(dir, base string) (string, bool) {
	switch {
	case base == "":
		return dir, true
	case dir == base:
		return "", true
	case strings.HasPrefix(dir, base+"/"):
		return dir[len(base)+1:], true
	}
	return "", false
}
