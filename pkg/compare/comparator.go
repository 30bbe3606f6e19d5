package compare

import (
	"context"
	"fmt"
	"io"

	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// Result represents the outcome of comparing two files
type Result string

const (
	// Same indicates files are considered equal
	Same Result = "same"
	// Different indicates files differ
	Different Result = "different"
)

// Comparison holds the result of comparing two files
type Comparison struct {
	PathA  string
	PathB  string
	Result Result
	Reason string
}

// Equal reports whether the files were considered equal
func (c *Comparison) Equal() bool {
	return c != nil && c.Result == Same
}

// Comparator defines the interface for file comparison strategies.
// An error means the files could not be compared at all.
type Comparator interface {
	// Compare compares two existing files
	Compare(ctx context.Context, a, b *storage.FileNode) (*Comparison, error)

	// Name returns the name of the comparison method
	Name() string
}

// ReaderWrapper wraps readers opened during comparison (e.g. for rate limiting)
type ReaderWrapper func(io.Reader) io.Reader

// Method selects a comparison strategy
type Method string

const (
	MethodBinary                  Method = "binary"
	MethodFullAnalysis            Method = "full-analysis"
	MethodTrustDate               Method = "trust-date"
	MethodTrustDateFallbackBinary Method = "trust-date-fallback-binary"
	MethodTrustSize               Method = "trust-size"
	MethodHash                    Method = "hash"
)

// Methods lists every supported method
func Methods() []Method {
	return []Method{
		MethodBinary,
		MethodFullAnalysis,
		MethodTrustDate,
		MethodTrustDateFallbackBinary,
		MethodTrustSize,
		MethodHash,
	}
}

// ParseMethod validates a method name
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &models.ValidationError{
		Field:   "compare.method",
		Message: fmt.Sprintf("unknown comparison method %q", s),
	}
}

// DefaultBufferSize is the chunk size for content comparison
const DefaultBufferSize = 100000

// Options configures New
type Options struct {
	Method          Method
	FollowFileLinks bool
	BufferSize      int
	ReaderWrapper   ReaderWrapper
}

// New returns the comparator for opts.Method, wrapped in the type and link
// checks every strategy shares. Full analysis is not a Comparator; use NewLineAnalyzer.
func New(opts Options) (Comparator, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	var strategy Comparator
	switch opts.Method {
	case MethodBinary, "":
		b := NewBinaryComparator(opts.BufferSize)
		b.SetReaderWrapper(opts.ReaderWrapper)
		strategy = b
	case MethodTrustSize:
		strategy = NewTrustSizeComparator()
	case MethodTrustDate:
		strategy = NewTrustDateComparator()
	case MethodTrustDateFallbackBinary:
		b := NewBinaryComparator(opts.BufferSize)
		b.SetReaderWrapper(opts.ReaderWrapper)
		strategy = NewFallbackComparator(b)
	case MethodHash:
		h := NewHashComparator(opts.BufferSize)
		h.SetReaderWrapper(opts.ReaderWrapper)
		strategy = h
	case MethodFullAnalysis:
		return nil, fmt.Errorf("%s uses a DiffAnalyzer, not a Comparator", opts.Method)
	default:
		return nil, fmt.Errorf("unknown comparison method %q", opts.Method)
	}

	return NewFileComparator(strategy, opts.FollowFileLinks), nil
}

func different(a, b *storage.FileNode, reason string) *Comparison {
	return &Comparison{PathA: a.Path(), PathB: b.Path(), Result: Different, Reason: reason}
}

func same(a, b *storage.FileNode, reason string) *Comparison {
	return &Comparison{PathA: a.Path(), PathB: b.Path(), Result: Same, Reason: reason}
}
