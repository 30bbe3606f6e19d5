package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sdejongh/dirmerge/pkg/storage"
)

// BinaryComparator compares files byte-by-byte in fixed-size chunks
type BinaryComparator struct {
	bufferSize     int
	bufferPool     *sync.Pool
	progressReport func(path string, current, total int64) // Optional progress callback
	readerWrapper  ReaderWrapper                           // Optional reader wrapper (e.g., for rate limiting)
}

// NewBinaryComparator creates a new byte-by-byte comparator
func NewBinaryComparator(bufferSize int) *BinaryComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &BinaryComparator{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetProgressCallback sets the progress reporting callback
func (c *BinaryComparator) SetProgressCallback(callback func(path string, current, total int64)) {
	c.progressReport = callback
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (c *BinaryComparator) SetReaderWrapper(wrapper ReaderWrapper) {
	c.readerWrapper = wrapper
}

func (c *BinaryComparator) wrap(r io.Reader) io.Reader {
	if c.readerWrapper == nil {
		return r
	}
	return c.readerWrapper(r)
}

// Compare compares two files byte-by-byte. Both files must deliver the
// full size recorded in their snapshot; a short read is an error.
func (c *BinaryComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error) {
	if a.Size() != b.Size() {
		return different(a, b, "size"), nil
	}

	readerA, err := a.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", a.Path(), err)
	}
	defer readerA.Close()

	readerB, err := b.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", b.Path(), err)
	}
	defer readerB.Close()

	wrappedA := c.wrap(readerA)
	wrappedB := c.wrap(readerB)

	bufAPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufAPtr)
	bufBPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufBPtr)

	const progressReportInterval = 50 * time.Millisecond
	var lastReportTime time.Time

	total := a.Size()
	left := total
	for left > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &storage.Error{Op: "compare", Path: a.Path(), Kind: storage.KindCancelled, Err: err}
		}

		n := int64(c.bufferSize)
		if left < n {
			n = left
		}
		bufA := (*bufAPtr)[:n]
		bufB := (*bufBPtr)[:n]

		if err := storage.ReadChunk(wrappedA, a.Path(), bufA); err != nil {
			return nil, err
		}
		if err := storage.ReadChunk(wrappedB, b.Path(), bufB); err != nil {
			return nil, err
		}

		if !bytes.Equal(bufA, bufB) {
			offset := total - left
			for i := range bufA {
				if bufA[i] != bufB[i] {
					offset += int64(i)
					break
				}
			}
			return different(a, b, fmt.Sprintf("content differs at byte offset %d", offset)), nil
		}
		left -= n

		if c.progressReport != nil && time.Since(lastReportTime) >= progressReportInterval {
			c.progressReport(a.Path(), total-left, total)
			lastReportTime = time.Now()
		}
	}

	if c.progressReport != nil {
		c.progressReport(a.Path(), total, total)
	}
	return same(a, b, "binary equal"), nil
}

// Name returns the comparator name
func (c *BinaryComparator) Name() string {
	return string(MethodBinary)
}
