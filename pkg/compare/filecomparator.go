package compare

import (
	"context"
	"errors"

	"github.com/sdejongh/dirmerge/pkg/storage"
)

var (
	// ErrNonNormal is returned when a device, pipe or socket is compared with a regular file
	ErrNonNormal = errors.New("unable to compare non-normal file with normal file")
	// ErrLinkMix is returned when a link is compared with a regular file and links are not followed
	ErrLinkMix = errors.New("mix of links and normal files")
)

// FileComparator applies the checks shared by all strategies before
// delegating: special files, links, then size.
type FileComparator struct {
	strategy        Comparator
	followFileLinks bool
}

// NewFileComparator wraps strategy
func NewFileComparator(strategy Comparator, followFileLinks bool) *FileComparator {
	return &FileComparator{strategy: strategy, followFileLinks: followFileLinks}
}

// Compare compares a and b
func (c *FileComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error) {
	if a.IsNormal() != b.IsNormal() {
		return nil, &storage.Error{Op: "compare", Path: a.Path(), Kind: storage.KindOther, Err: ErrNonNormal}
	}
	if !a.IsNormal() {
		return different(a, b, "special files are never equal"), nil
	}

	if !c.followFileLinks {
		if a.IsSymlink() != b.IsSymlink() {
			return nil, &storage.Error{Op: "compare", Path: a.Path(), Kind: storage.KindOther, Err: ErrLinkMix}
		}
		if a.IsSymlink() {
			if a.LinkTarget() == b.LinkTarget() {
				return same(a, b, "link targets match"), nil
			}
			return different(a, b, "link targets differ"), nil
		}
	}

	if a.Size() != b.Size() {
		return different(a, b, "size"), nil
	}

	return c.strategy.Compare(ctx, a, b)
}

// Name returns the strategy name
func (c *FileComparator) Name() string {
	return c.strategy.Name()
}
