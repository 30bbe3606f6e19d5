package compare

import (
	"context"

	"github.com/sdejongh/dirmerge/pkg/storage"
)

// TrustSizeComparator considers files of equal size equal
type TrustSizeComparator struct{}

// NewTrustSizeComparator creates a new size-only comparator
func NewTrustSizeComparator() *TrustSizeComparator {
	return &TrustSizeComparator{}
}

// Compare compares two files by size
func (c *TrustSizeComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error) {
	if a.Size() != b.Size() {
		return different(a, b, "size"), nil
	}
	return same(a, b, "size"), nil
}

// Name returns the comparator name
func (c *TrustSizeComparator) Name() string {
	return string(MethodTrustSize)
}

// TrustDateComparator considers files equal when size and modification time match
type TrustDateComparator struct{}

// NewTrustDateComparator creates a new date and size comparator
func NewTrustDateComparator() *TrustDateComparator {
	return &TrustDateComparator{}
}

// Compare compares two files by modification time and size
func (c *TrustDateComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error) {
	if a.Size() == b.Size() && a.ModTime().Equal(b.ModTime()) {
		return same(a, b, "date & size"), nil
	}
	return different(a, b, "date & size"), nil
}

// Name returns the comparator name
func (c *TrustDateComparator) Name() string {
	return string(MethodTrustDate)
}

// FallbackComparator trusts matching date and size, and compares content otherwise
type FallbackComparator struct {
	quick   *TrustDateComparator
	content Comparator
}

// NewFallbackComparator creates a comparator falling back to content
func NewFallbackComparator(content Comparator) *FallbackComparator {
	return &FallbackComparator{quick: NewTrustDateComparator(), content: content}
}

// Compare checks date and size first, then content
func (c *FallbackComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error) {
	result, err := c.quick.Compare(ctx, a, b)
	if err != nil || result.Equal() {
		return result, err
	}
	return c.content.Compare(ctx, a, b)
}

// Name returns the comparator name
func (c *FallbackComparator) Name() string {
	return string(MethodTrustDateFallbackBinary)
}
