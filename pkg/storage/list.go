package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreList filters directory entries during listing.
// Directories are identified by their "/"-separated path below the listed root.
type IgnoreList interface {
	// EnterDir is called once per listed directory with all of its entries,
	// before any filtering, so that per-directory ignore files can be loaded.
	EnterDir(ctx context.Context, dir string, entries []*FileNode)

	// Matches reports whether name inside dir is ignored
	Matches(dir, name string, caseSensitive bool) bool
}

// ListOptions controls FileNode.List
type ListOptions struct {
	Recursive       bool
	FindHidden      bool
	FilePattern     string // ";"-separated globs a file must match; empty matches all
	FileAntiPattern string // ";"-separated globs excluding files
	DirAntiPattern  string // ";"-separated globs excluding directories
	FollowDirLinks  bool
	CaseSensitive   bool

	// OnDir, if set, is called for each directory before it is read
	OnDir func(dir *FileNode)
}

// PartialListError reports subdirectories that could not be listed.
// Entries returned alongside it are complete for every other branch.
type PartialListError struct {
	Failures []error
}

func (e *PartialListError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("listing incomplete: %v", e.Failures[0])
	}
	return fmt.Sprintf("listing incomplete: %d directories failed, first: %v", len(e.Failures), e.Failures[0])
}

func (e *PartialListError) Unwrap() []error {
	return e.Failures
}

// List returns the entries below the directory n, parents before their children.
// A failure to read n itself is returned as is; failures in subdirectories
// are collected into a *PartialListError returned together with the entries.
func (n *FileNode) List(ctx context.Context, opts ListOptions, ignore IgnoreList) ([]*FileNode, error) {
	var result []*FileNode
	var failures []error

	if err := n.listDir(ctx, opts, ignore, &result, &failures, nil); err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return result, &PartialListError{Failures: failures}
	}
	return result, nil
}

func (n *FileNode) listDir(ctx context.Context, opts ListOptions, ignore IgnoreList, result *[]*FileNode, failures *[]error, ancestors []string) error {
	if opts.OnDir != nil {
		opts.OnDir(n)
	}

	infos, err := n.backend.ReadDir(ctx, n.path)
	if err != nil {
		return wrapError("list", n.path, err)
	}

	entries := make([]*FileNode, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, newListedNode(n.backend, info, joinRel(n.relPath, info.Name), n))
	}

	if ignore != nil {
		ignore.EnterDir(ctx, n.relPath, entries)
	}

	ancestors = append(ancestors, n.path)
	for _, entry := range entries {
		if !keepEntry(entry, opts) {
			continue
		}
		if ignore != nil && ignore.Matches(n.relPath, entry.Name(), opts.CaseSensitive) {
			continue
		}

		*result = append(*result, entry)

		if !opts.Recursive || !entry.IsDir() {
			continue
		}
		if entry.IsSymlink() {
			if !opts.FollowDirLinks {
				continue
			}
			if isLinkLoop(entry, ancestors) {
				*failures = append(*failures, &Error{Op: "list", Path: entry.path, Kind: KindOther, Err: errors.New("symlink loop")})
				continue
			}
		}

		if err := entry.listDir(ctx, opts, ignore, result, failures, ancestors); err != nil {
			if IsCancelled(err) {
				return err
			}
			*failures = append(*failures, err)
		}
	}

	return nil
}

func keepEntry(entry *FileNode, opts ListOptions) bool {
	if !opts.FindHidden && entry.Hidden() {
		return false
	}
	name := entry.Name()
	if entry.IsDir() {
		return !WildcardMultiMatch(opts.DirAntiPattern, name, opts.CaseSensitive)
	}
	if opts.FilePattern != "" && !WildcardMultiMatch(opts.FilePattern, name, opts.CaseSensitive) {
		return false
	}
	return !WildcardMultiMatch(opts.FileAntiPattern, name, opts.CaseSensitive)
}

// isLinkLoop reports whether a directory link points at one of the directories being listed
func isLinkLoop(entry *FileNode, ancestors []string) bool {
	target := entry.LinkTarget()
	if target == "" {
		return false
	}
	if !strings.HasPrefix(target, "/") && !(len(target) > 1 && target[1] == ':') {
		target = entry.backend.Join(entry.backend.Dir(entry.path), target)
	}
	for _, a := range ancestors {
		if target == a {
			return true
		}
	}
	return false
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// WildcardMultiMatch reports whether name matches any of the ";"-separated globs in patterns
func WildcardMultiMatch(patterns, name string, caseSensitive bool) bool {
	if !caseSensitive {
		name = strings.ToLower(name)
	}
	for _, pattern := range strings.Split(patterns, ";") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !caseSensitive {
			pattern = strings.ToLower(pattern)
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
