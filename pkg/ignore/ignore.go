// Package ignore implements version-control style ignore lists used while
// scanning directory trees.
package ignore

import (
	"context"

	"github.com/sdejongh/dirmerge/pkg/storage"
)

// Composite combines ignore lists. An entry is ignored if any member ignores it.
type Composite struct {
	lists []storage.IgnoreList
}

// NewComposite creates a composite of lists, consulted in order
func NewComposite(lists ...storage.IgnoreList) *Composite {
	return &Composite{lists: lists}
}

// Add appends a list
func (c *Composite) Add(list storage.IgnoreList) {
	c.lists = append(c.lists, list)
}

// Len returns the number of member lists
func (c *Composite) Len() int {
	return len(c.lists)
}

// EnterDir forwards to every member
func (c *Composite) EnterDir(ctx context.Context, dir string, entries []*storage.FileNode) {
	for _, l := range c.lists {
		l.EnterDir(ctx, dir, entries)
	}
}

// Matches returns true on the first member that matches
func (c *Composite) Matches(dir, name string, caseSensitive bool) bool {
	for _, l := range c.lists {
		if l.Matches(dir, name, caseSensitive) {
			return true
		}
	}
	return false
}
