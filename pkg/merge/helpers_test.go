package merge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/scan"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// fixture holds temporary A, B and optional C and destination roots
type fixture struct {
	t     *testing.T
	local *storage.Local
	dirs  map[Side]string
}

func newFixture(t *testing.T, withC, withDest bool) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{t: t, local: storage.NewLocal(), dirs: map[Side]string{
		SideA: filepath.Join(base, "a"),
		SideB: filepath.Join(base, "b"),
	}}
	if withC {
		f.dirs[SideC] = filepath.Join(base, "c")
	}
	if withDest {
		f.dirs[SideDest] = filepath.Join(base, "dest")
	}
	for _, dir := range f.dirs {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return f
}

func (f *fixture) path(side Side, rel string) string {
	return filepath.Join(f.dirs[side], filepath.FromSlash(rel))
}

func (f *fixture) write(side Side, rel, content string, mtime time.Time) {
	f.t.Helper()
	path := f.path(side, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0644))
	if !mtime.IsZero() {
		require.NoError(f.t, os.Chtimes(path, mtime, mtime))
	}
}

func (f *fixture) mkdir(side Side, rel string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(f.path(side, rel), 0755))
}

func (f *fixture) read(side Side, rel string) string {
	f.t.Helper()
	data, err := os.ReadFile(f.path(side, rel))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) exists(side Side, rel string) bool {
	_, err := os.Lstat(f.path(side, rel))
	return err == nil
}

func (f *fixture) roots() Roots {
	f.t.Helper()
	ctx := context.Background()
	open := func(side Side) *storage.FileNode {
		dir, ok := f.dirs[side]
		if !ok {
			return nil
		}
		node, err := storage.OpenRoot(ctx, f.local, dir)
		require.NoError(f.t, err)
		return node
	}
	return Roots{A: open(SideA), B: open(SideB), C: open(SideC), Dest: open(SideDest)}
}

// build scans the roots with the default scan settings and compares
// files byte by byte
func (f *fixture) build() *Tree {
	f.t.Helper()
	comparator, err := compare.New(compare.Options{Method: compare.MethodBinary})
	require.NoError(f.t, err)
	return f.buildWith(BuildOptions{Comparator: comparator})
}

func (f *fixture) buildWith(opts BuildOptions) *Tree {
	f.t.Helper()
	roots, lists := f.scanAll()
	tree, err := NewBuilder(opts, nil, nil).Build(context.Background(), roots, lists[SideA], lists[SideB], lists[SideC])
	require.NoError(f.t, err)
	return tree
}

func (f *fixture) scanAll() (Roots, [3][]*storage.FileNode) {
	f.t.Helper()
	ctx := context.Background()
	roots := f.roots()
	scanner := scan.NewScanner(scan.DefaultConfig(), nil, nil)

	var lists [3][]*storage.FileNode
	for _, s := range sides {
		root := roots.Node(s)
		if root == nil {
			continue
		}
		result, err := scanner.Scan(ctx, root)
		require.NoError(f.t, err)
		lists[s] = result.Entries
	}
	return roots, lists
}

func (f *fixture) session(config Config) *Session {
	f.t.Helper()
	s, err := NewSession(f.build(), config)
	require.NoError(f.t, err)
	return s
}

func mustLookup(t *testing.T, tree *Tree, subPath string) *Entry {
	t.Helper()
	e, ok := tree.Lookup(subPath)
	require.True(t, ok, "entry %s not found", subPath)
	return e
}

// recordingMerger remembers the merge requests it receives
type recordingMerger struct {
	mu       sync.Mutex
	requests []MergeRequest
	err      error
}

func (m *recordingMerger) RequestMerge(ctx context.Context, req MergeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.err
}

// sampleNodes returns an existing file and an existing directory
func sampleNodes(t *testing.T) (file, dir *storage.FileNode) {
	t.Helper()
	ctx := context.Background()
	base := t.TempDir()
	local := storage.NewLocal()

	require.NoError(t, os.WriteFile(filepath.Join(base, "file"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(base, "dir"), 0755))

	file, err := storage.NewFileNode(ctx, local, filepath.Join(base, "file"))
	require.NoError(t, err)
	dir, err = storage.NewFileNode(ctx, local, filepath.Join(base, "dir"))
	require.NoError(t, err)
	return file, dir
}

// entryOn returns an entry with node on every side listed in present
func entryOn(node *storage.FileNode, present ...Side) *Entry {
	e := newEntry(1, "item", RootID)
	for _, s := range present {
		e.Nodes[s] = node
	}
	return e
}
