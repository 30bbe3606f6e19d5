package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/dirmerge/pkg/storage"
	"github.com/zeebo/blake3"
)

// Partial hashing configuration
const (
	// Minimum file size to enable partial hashing (1MB)
	partialHashThreshold = 1 * 1024 * 1024
	// Size of partial hash to compute (256KB)
	partialHashSize = 256 * 1024
)

// HashComparator compares files by BLAKE3 digest.
// Large files are first compared on a hash of their leading bytes.
type HashComparator struct {
	bufferSize        int
	bufferPool        *sync.Pool
	enablePartialHash bool
	readerWrapper     ReaderWrapper
}

// NewHashComparator creates a new hash-based comparator
func NewHashComparator(bufferSize int) *HashComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &HashComparator{
		bufferSize:        bufferSize,
		enablePartialHash: true,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetPartialHashEnabled enables or disables partial hashing optimization
func (c *HashComparator) SetPartialHashEnabled(enabled bool) {
	c.enablePartialHash = enabled
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (c *HashComparator) SetReaderWrapper(wrapper ReaderWrapper) {
	c.readerWrapper = wrapper
}

// Compare compares two files by digest
func (c *HashComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error) {
	if a.Size() != b.Size() {
		return different(a, b, "size"), nil
	}

	if c.enablePartialHash && a.Size() >= partialHashThreshold {
		partialA, err := c.hashFile(ctx, a, partialHashSize)
		if err != nil {
			return nil, err
		}
		partialB, err := c.hashFile(ctx, b, partialHashSize)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(partialA, partialB) {
			return different(a, b, "partial hash mismatch"), nil
		}
	}

	hashA, err := c.hashFile(ctx, a, a.Size())
	if err != nil {
		return nil, err
	}
	hashB, err := c.hashFile(ctx, b, b.Size())
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(hashA, hashB) {
		return different(a, b, "hash mismatch"), nil
	}
	return same(a, b, "hash match"), nil
}

// hashFile digests the first limit bytes of node; reading fewer is an error
func (c *HashComparator) hashFile(ctx context.Context, node *storage.FileNode, limit int64) ([]byte, error) {
	rc, err := node.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", node.Path(), err)
	}
	defer rc.Close()

	var reader io.Reader = rc
	if c.readerWrapper != nil {
		reader = c.readerWrapper(reader)
	}

	bufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufPtr)

	hasher := blake3.New()
	left := limit
	for left > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &storage.Error{Op: "hash", Path: node.Path(), Kind: storage.KindCancelled, Err: err}
		}
		n := int64(len(*bufPtr))
		if left < n {
			n = left
		}
		chunk := (*bufPtr)[:n]
		if err := storage.ReadChunk(reader, node.Path(), chunk); err != nil {
			return nil, err
		}
		hasher.Write(chunk)
		left -= n
	}

	return hasher.Sum(nil), nil
}

// Name returns the comparator name
func (c *HashComparator) Name() string {
	return string(MethodHash)
}
