package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

var (
	t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
	t2 = t0.Add(2 * time.Hour)
)

func TestAgesAllDifferent(t *testing.T) {
	f := newFixture(t, true, true)
	f.write(SideA, "x.txt", "aaa", t2)
	f.write(SideB, "x.txt", "bbb", t1)
	f.write(SideC, "x.txt", "ccc", t0)

	e := mustLookup(t, f.build(), "x.txt")
	assert.Equal(t, [3]models.Age{models.AgeNew, models.AgeMiddle, models.AgeOld}, e.Ages)
	assert.False(t, e.ConflictingAges)
}

func TestAgesEqualTimestampDifferentContent(t *testing.T) {
	f := newFixture(t, true, true)
	f.write(SideA, "x.txt", "aaa", t2)
	f.write(SideB, "x.txt", "bbb", t0)
	f.write(SideC, "x.txt", "ccc", t0)

	e := mustLookup(t, f.build(), "x.txt")
	assert.True(t, e.ConflictingAges)
	assert.Equal(t, models.AgeNew, e.Ages[SideA])
	assert.NotEqual(t, e.Ages[SideB], e.Ages[SideC])
	assert.NotEqual(t, models.AgeNotThere, e.Ages[SideB])
	assert.NotEqual(t, models.AgeNotThere, e.Ages[SideC])
}

func TestAgesTwoSidesAnchorOldest(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "x.txt", "new", t1)
	f.write(SideB, "x.txt", "old", t0)

	e := mustLookup(t, f.build(), "x.txt")
	assert.Equal(t, models.AgeNew, e.Ages[SideA])
	assert.Equal(t, models.AgeOld, e.Ages[SideB])
	assert.Equal(t, models.AgeNotThere, e.Ages[SideC])
}

func TestAgesEqualSidesShareRank(t *testing.T) {
	f := newFixture(t, true, true)
	f.write(SideA, "x.txt", "same", t1)
	f.write(SideB, "x.txt", "same", t2)
	f.write(SideC, "x.txt", "other", t0)

	e := mustLookup(t, f.build(), "x.txt")
	assert.True(t, e.EqualAB)
	assert.Equal(t, e.Ages[SideA], e.Ages[SideB])
	assert.Equal(t, models.AgeNew, e.Ages[SideB])
	assert.Equal(t, models.AgeOld, e.Ages[SideC])
}

func TestBuildEmptyRoots(t *testing.T) {
	f := newFixture(t, true, true)
	tree := f.build()

	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Rows())
	assert.Equal(t, models.DirStatus{}, tree.DirStatus())
	assert.True(t, tree.Root().EqualAB)
}

func TestBuildTreeStructure(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "same/x.txt", "x", t0)
	f.write(SideB, "same/x.txt", "x", t0)
	f.write(SideA, "diff/deep/y.txt", "1", t0)
	f.write(SideB, "diff/deep/y.txt", "2", t0)
	f.write(SideA, "Zeta.txt", "z", t0)
	f.write(SideB, "alpha.txt", "a", t0)

	tree := f.build()

	same := mustLookup(t, tree, "same")
	assert.True(t, same.EqualAB, "directory with equal content")

	diff := mustLookup(t, tree, "diff")
	deep := mustLookup(t, tree, "diff/deep")
	assert.False(t, diff.EqualAB, "inequality propagates to every ancestor")
	assert.False(t, deep.EqualAB)
	assert.False(t, tree.Root().EqualAB)

	y := mustLookup(t, tree, "diff/deep/y.txt")
	assert.Equal(t, "diff/deep/y.txt", tree.SubPath(y.ID))
	assert.Equal(t, "y.txt", y.Name)
	assert.Equal(t, deep.ID, y.Parent)

	// Directories first, then names ignoring case
	var names []string
	for _, id := range tree.Root().Children {
		names = append(names, tree.Entry(id).Name)
	}
	assert.Equal(t, []string{"diff", "same", "alpha.txt", "Zeta.txt"}, names)

	status := tree.DirStatus()
	assert.Equal(t, 4, status.Files)
	assert.Equal(t, 3, status.Dirs)
	assert.Equal(t, 1, status.EqualFiles)
	assert.Equal(t, 3, status.DifferentFiles())
}

func TestBuildConflictingTypes(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "thing", "file", t0)
	f.mkdir(SideB, "thing")

	e := mustLookup(t, f.build(), "thing")
	assert.False(t, e.EqualAB)
	assert.True(t, e.conflictingFileTypes())
}

func TestBuildIgnoreCase(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "Docs/Readme.txt", "same", t0)
	f.write(SideB, "docs/README.txt", "same", t0)

	comparator, err := compare.New(compare.Options{Method: compare.MethodBinary})
	require.NoError(t, err)

	t.Run("Paired", func(t *testing.T) {
		tree := f.buildWith(BuildOptions{Comparator: comparator, IgnoreCase: true})

		assert.Equal(t, 2, tree.Len())
		e := mustLookup(t, tree, "Docs/Readme.txt")
		assert.Equal(t, "Readme.txt", e.Name, "the name seen in A is kept")
		assert.True(t, e.Exists(SideA))
		assert.True(t, e.Exists(SideB))
		assert.True(t, e.EqualAB)

		same := mustLookup(t, tree, "docs/README.txt")
		assert.Equal(t, e.ID, same.ID)
		assert.Equal(t, f.path(SideB, "docs/README.txt"), tree.FullName(e.ID, SideB))
		assert.Equal(t, f.path(SideB, "docs/README.txt"), tree.FullName(e.ID, SideDest))
		assert.True(t, tree.Root().EqualAB)
	})

	t.Run("CaseSensitive", func(t *testing.T) {
		tree := f.buildWith(BuildOptions{Comparator: comparator})

		assert.Equal(t, 4, tree.Len())
		a := mustLookup(t, tree, "Docs/Readme.txt")
		b := mustLookup(t, tree, "docs/README.txt")
		assert.NotEqual(t, a.ID, b.ID)
		assert.False(t, a.Exists(SideB))
		assert.False(t, b.Exists(SideA))
	})
}

func TestFullNames(t *testing.T) {
	f := newFixture(t, false, true)
	f.write(SideA, "sub/only-a.txt", "a", t0)

	tree := f.build()
	e := mustLookup(t, tree, "sub/only-a.txt")

	assert.Equal(t, f.path(SideA, "sub/only-a.txt"), tree.FullName(e.ID, SideA))
	assert.Equal(t, f.path(SideB, "sub/only-a.txt"), tree.FullName(e.ID, SideB))
	assert.Equal(t, f.path(SideDest, "sub/only-a.txt"), tree.FullName(e.ID, SideDest))
	assert.Equal(t, f.dirs[SideA], tree.FullName(RootID, SideA))
}

func TestFullNameDestFollowsB(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "x.txt", "a", t0)

	tree := f.build()
	e := mustLookup(t, tree, "x.txt")
	assert.Equal(t, f.path(SideB, "x.txt"), tree.FullName(e.ID, SideDest))
}

func TestRows(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "dir/file.txt", "a", t1)
	f.write(SideB, "dir/file.txt", "b", t0)

	s := f.session(Config{SyncMode: true})
	rows := s.Tree().Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, "dir", rows[0].Path)
	assert.True(t, rows[0].IsDir)
	assert.Equal(t, 0, rows[0].Depth)

	assert.Equal(t, "dir/file.txt", rows[1].Path)
	assert.Equal(t, 1, rows[1].Depth)
	assert.Equal(t, [3]bool{true, true, false}, rows[1].Exists)
	assert.Equal(t, models.AgeNew, rows[1].Ages[SideA])
	assert.Equal(t, models.OpMergeToAB, rows[1].Operation)
	assert.False(t, rows[1].Equal)
}

type failingComparator struct{}

func (failingComparator) Compare(ctx context.Context, a, b *storage.FileNode) (*compare.Comparison, error) {
	return nil, errors.New("read failed")
}

func (failingComparator) Name() string { return "failing" }

func TestBuildCompareErrors(t *testing.T) {
	t.Run("Recorded", func(t *testing.T) {
		f := newFixture(t, false, false)
		f.write(SideA, "x.txt", "a", t0)
		f.write(SideB, "x.txt", "a", t0)

		tree := f.buildWith(BuildOptions{Comparator: failingComparator{}})
		require.Len(t, tree.CompareErrors, 1)
		assert.Contains(t, tree.CompareErrors[0].Error(), "x.txt")
		assert.False(t, mustLookup(t, tree, "x.txt").EqualAB)
	})

	t.Run("TooMany", func(t *testing.T) {
		f := newFixture(t, false, false)
		for i := 0; i < maxCompareErrors+1; i++ {
			name := fmt.Sprintf("file%02d.txt", i)
			f.write(SideA, name, "a", t0)
			f.write(SideB, name, "a", t0)
		}

		roots, lists := f.scanAll()
		_, err := NewBuilder(BuildOptions{Comparator: failingComparator{}}, nil, nil).
			Build(context.Background(), roots, lists[SideA], lists[SideB], nil)
		assert.ErrorIs(t, err, ErrTooManyErrors)
	})
}

func TestBuildFullAnalysis(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "ws.txt", "a  b\n", t0)
	f.write(SideB, "ws.txt", "a b\n", t0)
	f.write(SideA, "real.txt", "one\n", t0)
	f.write(SideB, "real.txt", "two\n", t0)

	tree := f.buildWith(BuildOptions{Analyzer: compare.NewLineAnalyzer(true), WhitespaceEqual: true})
	assert.True(t, mustLookup(t, tree, "ws.txt").EqualAB)
	assert.False(t, mustLookup(t, tree, "real.txt").EqualAB)

	strict := f.buildWith(BuildOptions{Analyzer: compare.NewLineAnalyzer(false)})
	assert.False(t, mustLookup(t, strict, "ws.txt").EqualAB)
}

func TestBuildSymlinkNotEqualToFile(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "target.txt", "x", t0)
	f.write(SideB, "target.txt", "x", t0)
	f.write(SideA, "link", "x", t0)
	require.NoError(t, os.Symlink(filepath.Join(f.dirs[SideB], "target.txt"), f.path(SideB, "link")))

	e := mustLookup(t, f.build(), "link")
	assert.False(t, e.EqualAB)
	assert.True(t, e.conflictingFileTypes())
}

func TestBuildCancelled(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "x.txt", "a", t0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	comparator, err := compare.New(compare.Options{})
	require.NoError(t, err)
	_, err = NewBuilder(BuildOptions{Comparator: comparator}, nil, nil).Build(ctx, f.roots(), nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
