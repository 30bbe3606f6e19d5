package compare

import (
	"context"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/storage"
)

// DiffStats summarises a diff of two or three files
type DiffStats struct {
	Unsolved   int
	Solved     int
	Whitespace int

	BinaryEqualAB bool
	BinaryEqualAC bool
	BinaryEqualBC bool
}

// NonWhitespaceConflicts returns the conflicts that are not whitespace-only
func (s DiffStats) NonWhitespaceConflicts() int {
	return s.Unsolved + s.Solved - s.Whitespace
}

// DiffAnalyzer runs a full analysis of up to three files.
// Missing sides are passed as nil.
type DiffAnalyzer interface {
	Analyze(ctx context.Context, a, b, c *storage.FileNode) (*DiffStats, error)
}

// LineAnalyzer is a DiffAnalyzer working on whole files: files are binary
// equal or not, and differing files count as one conflict. With whitespace
// checking on, that conflict is whitespace-only when the files are equal
// after whitespace normalisation.
type LineAnalyzer struct {
	binary     *BinaryComparator
	whitespace bool
}

// NewLineAnalyzer creates a line analyzer. whitespace enables the
// whitespace classification, which reads differing files into memory.
func NewLineAnalyzer(whitespace bool) *LineAnalyzer {
	return &LineAnalyzer{
		binary:     NewBinaryComparator(DefaultBufferSize),
		whitespace: whitespace,
	}
}

// SetReaderWrapper sets a function to wrap the readers of the binary pass
func (l *LineAnalyzer) SetReaderWrapper(wrapper ReaderWrapper) {
	l.binary.SetReaderWrapper(wrapper)
}

// Analyze compares the present sides. Sizes are checked first and contents
// are streamed; files are only read whole when they differ and whitespace
// checking is on.
func (l *LineAnalyzer) Analyze(ctx context.Context, a, b, c *storage.FileNode) (*DiffStats, error) {
	nodes := [3]*storage.FileNode{a, b, c}
	var present [3]bool
	for i, node := range nodes {
		present[i] = node != nil && node.Exists()
	}

	equal := func(i, j int) (bool, error) {
		if !present[i] || !present[j] {
			return false, nil
		}
		result, err := l.binary.Compare(ctx, nodes[i], nodes[j])
		if err != nil {
			return false, err
		}
		return result.Equal(), nil
	}

	stats := &DiffStats{}
	var err error
	if stats.BinaryEqualAB, err = equal(0, 1); err != nil {
		return nil, err
	}
	if stats.BinaryEqualAC, err = equal(0, 2); err != nil {
		return nil, err
	}
	if stats.BinaryEqualAB && stats.BinaryEqualAC {
		stats.BinaryEqualBC = true
	} else if stats.BinaryEqualBC, err = equal(1, 2); err != nil {
		return nil, err
	}

	allEqual := (!present[0] || !present[1] || stats.BinaryEqualAB) &&
		(!present[0] || !present[2] || stats.BinaryEqualAC) &&
		(!present[1] || !present[2] || stats.BinaryEqualBC)
	if allEqual {
		return stats, nil
	}

	stats.Unsolved = 1
	if !l.whitespace {
		return stats, nil
	}

	var normalized []string
	for i, node := range nodes {
		if !present[i] {
			continue
		}
		data, err := node.ReadAll(ctx)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, normalizeWhitespace(data))
	}
	for _, n := range normalized[1:] {
		if n != normalized[0] {
			return stats, nil
		}
	}
	stats.Whitespace = 1
	return stats, nil
}

// normalizeWhitespace collapses runs of blanks inside lines and drops blank lines
func normalizeWhitespace(data []byte) string {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if f := strings.Fields(line); len(f) > 0 {
			kept = append(kept, strings.Join(f, " "))
		}
	}
	return strings.Join(kept, "\n")
}
