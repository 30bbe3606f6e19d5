package compare

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// createTestFile creates a test file with specific content
func createTestFile(t *testing.T, dir, name, content string) *storage.FileNode {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return statFile(t, path)
}

func statFile(t *testing.T, path string) *storage.FileNode {
	t.Helper()
	node, err := storage.NewFileNode(context.Background(), storage.NewLocal(), path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return node
}

func setModTime(t *testing.T, node *storage.FileNode, mtime time.Time) *storage.FileNode {
	t.Helper()
	if err := os.Chtimes(node.Path(), mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}
	return statFile(t, node.Path())
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods() {
		got, err := ParseMethod(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %q, %v", m, got, err)
		}
	}

	_, err := ParseMethod("md5")
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("ParseMethod(md5) error = %v, want ValidationError", err)
	}
}

func TestNew(t *testing.T) {
	for _, m := range Methods() {
		t.Run(string(m), func(t *testing.T) {
			c, err := New(Options{Method: m})
			if m == MethodFullAnalysis {
				if err == nil {
					t.Error("New(full-analysis) should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if c.Name() != string(m) {
				t.Errorf("Name() = %q, want %q", c.Name(), m)
			}
		})
	}

	if _, err := New(Options{Method: "bogus"}); err == nil {
		t.Error("New(bogus) should fail")
	}
}

func TestStrategies(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	base := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)

	a := setModTime(t, createTestFile(t, dir, "a", "hello world"), base)
	same := setModTime(t, createTestFile(t, dir, "same", "hello world"), base.Add(time.Hour))
	sameSizeDiff := setModTime(t, createTestFile(t, dir, "samesize", "hello WORLD"), base)
	other := setModTime(t, createTestFile(t, dir, "other", "something else"), base)

	tests := []struct {
		method Method
		b      *storage.FileNode
		want   bool
	}{
		{MethodBinary, same, true},
		{MethodBinary, sameSizeDiff, false},
		{MethodBinary, other, false},
		{MethodHash, same, true},
		{MethodHash, sameSizeDiff, false},
		{MethodTrustSize, sameSizeDiff, true},
		{MethodTrustSize, other, false},
		{MethodTrustDate, same, false},        // content equal but dates differ
		{MethodTrustDate, sameSizeDiff, true}, // dates and sizes match
		{MethodTrustDateFallbackBinary, same, true},
		{MethodTrustDateFallbackBinary, sameSizeDiff, true},
		{MethodTrustDateFallbackBinary, other, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method)+"/"+tt.b.Name(), func(t *testing.T) {
			c, err := New(Options{Method: tt.method})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			result, err := c.Compare(ctx, a, tt.b)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if result.Equal() != tt.want {
				t.Errorf("Compare() = %s (%s), want equal=%v", result.Result, result.Reason, tt.want)
			}
		})
	}
}

func TestBinaryComparatorChunks(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	content := strings.Repeat("0123456789", 2500) // spans several 4096-byte chunks
	a := createTestFile(t, dir, "a", content)
	b := createTestFile(t, dir, "b", content)
	c := createTestFile(t, dir, "c", content[:20000]+"X"+content[20001:])

	comp := NewBinaryComparator(4096)
	var lastCurrent, lastTotal int64
	comp.SetProgressCallback(func(path string, current, total int64) {
		lastCurrent, lastTotal = current, total
	})

	result, err := comp.Compare(ctx, a, b)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if !result.Equal() {
		t.Errorf("identical files reported different: %s", result.Reason)
	}
	if lastCurrent != int64(len(content)) || lastTotal != int64(len(content)) {
		t.Errorf("final progress = %d/%d, want %d", lastCurrent, lastTotal, len(content))
	}

	result, err = comp.Compare(ctx, a, c)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Equal() {
		t.Error("different files reported equal")
	}
	if !strings.Contains(result.Reason, "offset 20000") {
		t.Errorf("Reason = %q, want offset 20000", result.Reason)
	}
}

func TestBinaryComparatorShortRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := createTestFile(t, dir, "a", "0123456789")
	b := createTestFile(t, dir, "b", "0123456789")

	// b shrinks after its snapshot was taken
	if err := os.WriteFile(b.Path(), []byte("01234"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewBinaryComparator(4096).Compare(ctx, a, b)
	if !errors.Is(err, storage.ErrPartialTransfer) {
		t.Errorf("Compare() error = %v, want partial transfer", err)
	}
}

func TestBinaryComparatorCancelled(t *testing.T) {
	dir := t.TempDir()
	a := createTestFile(t, dir, "a", "abc")
	b := createTestFile(t, dir, "b", "abc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBinaryComparator(4096).Compare(ctx, a, b)
	if !storage.IsCancelled(err) {
		t.Errorf("Compare() error = %v, want cancelled", err)
	}
}

func TestHashComparatorPartial(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	big := strings.Repeat("x", partialHashThreshold+10)
	a := createTestFile(t, dir, "a", big)
	b := createTestFile(t, dir, "b", "y"+big[1:])
	c := createTestFile(t, dir, "c", big)

	comp := NewHashComparator(64 * 1024)
	result, err := comp.Compare(ctx, a, b)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Equal() || result.Reason != "partial hash mismatch" {
		t.Errorf("Compare() = %s (%s), want partial hash mismatch", result.Result, result.Reason)
	}

	result, err = comp.Compare(ctx, a, c)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if !result.Equal() {
		t.Errorf("identical large files reported different: %s", result.Reason)
	}
}

func TestFileComparatorLinks(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	file := createTestFile(t, dir, "file", "content")

	link := func(name, target string) *storage.FileNode {
		path := filepath.Join(dir, name)
		if err := os.Symlink(target, path); err != nil {
			t.Fatal(err)
		}
		return statFile(t, path)
	}
	l1 := link("l1", "file")
	l2 := link("l2", "file")
	l3 := link("l3", "elsewhere")

	c := NewFileComparator(NewBinaryComparator(4096), false)

	if _, err := c.Compare(ctx, file, l1); !errors.Is(err, ErrLinkMix) {
		t.Errorf("file vs link error = %v, want ErrLinkMix", err)
	}
	if r, err := c.Compare(ctx, l1, l2); err != nil || !r.Equal() {
		t.Errorf("same targets = %v, %v, want equal", r, err)
	}
	if r, err := c.Compare(ctx, l1, l3); err != nil || r.Equal() {
		t.Errorf("different targets = %v, %v, want different", r, err)
	}

	// Following links compares the targets' content
	following := NewFileComparator(NewBinaryComparator(4096), true)
	if r, err := following.Compare(ctx, file, l1); err != nil || !r.Equal() {
		t.Errorf("followed link = %v, %v, want equal", r, err)
	}
}

func TestLineAnalyzer(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := createTestFile(t, dir, "a", "int x = 1;\nreturn x;\n")
	b := createTestFile(t, dir, "b", "int  x = 1;\n\n   return x;\n")
	c := createTestFile(t, dir, "c", "int x = 2;\nreturn x;\n")
	a2 := createTestFile(t, dir, "a2", "int x = 1;\nreturn x;\n")

	an := NewLineAnalyzer(true)

	stats, err := an.Analyze(ctx, a, a2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.BinaryEqualAB || stats.Unsolved != 0 {
		t.Errorf("equal files: %+v", stats)
	}

	stats, err = an.Analyze(ctx, a, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.BinaryEqualAB || stats.NonWhitespaceConflicts() != 0 || stats.Whitespace != 1 {
		t.Errorf("whitespace-only difference: %+v", stats)
	}

	stats, err = an.Analyze(ctx, a, b, c)
	if err != nil {
		t.Fatal(err)
	}
	if stats.NonWhitespaceConflicts() != 1 || stats.BinaryEqualAC || stats.BinaryEqualBC {
		t.Errorf("real conflict: %+v", stats)
	}

	stats, err = an.Analyze(ctx, nil, b, a2)
	if err != nil {
		t.Fatal(err)
	}
	if stats.BinaryEqualAB || stats.BinaryEqualAC || stats.Whitespace != 1 {
		t.Errorf("missing A: %+v", stats)
	}
}

func TestLineAnalyzerWithoutWhitespace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := createTestFile(t, dir, "a", "int x = 1;\n")
	b := createTestFile(t, dir, "b", "int  x = 1;\n")

	an := NewLineAnalyzer(false)
	stats, err := an.Analyze(ctx, a, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.BinaryEqualAB || stats.Unsolved != 1 || stats.Whitespace != 0 {
		t.Errorf("whitespace difference without whitespace checking: %+v", stats)
	}

	// Files of different sizes are told apart without being read
	if err := os.Remove(b.Path()); err != nil {
		t.Fatal(err)
	}
	stats, err = an.Analyze(ctx, a, b, nil)
	if err != nil {
		t.Fatalf("size difference should not open files: %v", err)
	}
	if stats.BinaryEqualAB || stats.Unsolved != 1 {
		t.Errorf("size difference: %+v", stats)
	}
}
