package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/dirmerge/pkg/models"
)

func buildRoots(t *testing.T, f *fixture, roots Roots) *Tree {
	t.Helper()
	comparator := failingComparator{}
	tree, err := NewBuilder(BuildOptions{Comparator: comparator}, nil, nil).Build(context.Background(), roots, nil, nil, nil)
	require.NoError(t, err)
	return tree
}

func TestNewSessionValidation(t *testing.T) {
	t.Run("ThreeWayDestIsB", func(t *testing.T) {
		f := newFixture(t, true, false)
		roots := f.roots()
		roots.Dest = roots.B

		_, err := NewSession(buildRoots(t, f, roots), DefaultConfig())
		var ve *models.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "dest", ve.Field)
	})

	t.Run("SyncModeThreeWay", func(t *testing.T) {
		f := newFixture(t, true, true)
		_, err := NewSession(f.build(), Config{SyncMode: true})
		var ve *models.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "merge.sync_mode", ve.Field)
	})

	t.Run("SyncModeOtherDest", func(t *testing.T) {
		f := newFixture(t, false, true)
		_, err := NewSession(f.build(), Config{SyncMode: true})
		var ve *models.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "merge.sync_mode", ve.Field)
	})

	t.Run("SyncModeDestIsA", func(t *testing.T) {
		f := newFixture(t, false, false)
		roots := f.roots()
		roots.Dest = roots.A

		s, err := NewSession(buildRoots(t, f, roots), Config{SyncMode: true})
		require.NoError(t, err)
		assert.True(t, s.SyncMode())
	})
}

func TestSessionDefaultOperation(t *testing.T) {
	tests := []struct {
		name     string
		withC    bool
		withDest bool
		sync     bool
		want     models.MergeOperation
	}{
		{"three way", true, true, false, models.OpMergeABCToDest},
		{"sync", false, false, true, models.OpMergeToAB},
		{"two way to dest", false, true, false, models.OpMergeABToDest},
		{"two way into B", false, false, false, models.OpMergeABToDest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.withC, tt.withDest)
			s := f.session(Config{SyncMode: tt.sync})
			assert.Equal(t, tt.want, s.DefaultOperation())
			assert.Equal(t, ".orig", s.Config().BackupExtension)
		})
	}
}

func TestSessionApplyDefaults(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "both.txt", "a", t1)
	f.write(SideB, "both.txt", "b", t0)
	f.write(SideA, "same.txt", "s", t0)
	f.write(SideB, "same.txt", "s", t0)
	f.write(SideA, "only-a.txt", "a", t0)
	f.write(SideB, "only-b.txt", "b", t0)

	s := f.session(Config{SyncMode: true})
	tree := s.Tree()
	assert.Equal(t, models.OpMergeToAB, mustLookup(t, tree, "both.txt").Operation)
	assert.Equal(t, models.OpNone, mustLookup(t, tree, "same.txt").Operation)
	assert.Equal(t, models.OpCopyAToB, mustLookup(t, tree, "only-a.txt").Operation)
	assert.Equal(t, models.OpCopyBToA, mustLookup(t, tree, "only-b.txt").Operation)

	newer := f.session(Config{SyncMode: true, CopyNewer: true})
	assert.Equal(t, models.OpCopyAToB, mustLookup(t, newer.Tree(), "both.txt").Operation)

	status := tree.DirStatus()
	assert.Equal(t, 0, status.ManualMerges, "sync merges are not counted as manual merges")
}

func TestSetMergeOperationRecursive(t *testing.T) {
	f := newFixture(t, false, true)
	f.write(SideA, "d/x.txt", "a", t0)
	f.write(SideB, "d/x.txt", "b", t0)
	f.write(SideA, "d/only-a.txt", "a", t0)

	s := f.session(DefaultConfig())
	tree := s.Tree()
	d := mustLookup(t, tree, "d")
	x := mustLookup(t, tree, "d/x.txt")
	onlyA := mustLookup(t, tree, "d/only-a.txt")

	assert.Equal(t, models.OpMergeABToDest, d.Operation)
	assert.Equal(t, models.OpMergeABToDest, x.Operation)
	assert.Equal(t, models.OpCopyAToDest, onlyA.Operation)
	assert.Equal(t, 1, tree.DirStatus().ManualMerges)

	s.SetMergeOperation(d.ID, models.OpCopyBToDest, true)
	assert.Equal(t, models.OpCopyBToDest, x.Operation)
	assert.Equal(t, models.OpDeleteFromDest, onlyA.Operation, "copy from a missing side becomes a delete")

	// Error operations pass the session default down
	s.SetMergeOperation(d.ID, models.OpConflictingFileTypes, true)
	assert.Equal(t, models.OpConflictingFileTypes, d.Operation)
	assert.Equal(t, models.OpMergeABToDest, x.Operation)
	assert.Equal(t, models.OpCopyAToDest, onlyA.Operation)

	// Non-recursive changes leave the children alone
	s.SetMergeOperation(d.ID, models.OpNone, false)
	assert.Equal(t, models.OpMergeABToDest, x.Operation)
}

func TestSetMergeOperationRestartsEntry(t *testing.T) {
	f := newFixture(t, false, false)
	f.write(SideA, "x.txt", "a", t0)

	s := f.session(Config{SyncMode: true})
	x := mustLookup(t, s.Tree(), "x.txt")
	x.Status = models.StatusDone
	x.endOperation()

	s.SetMergeOperation(x.ID, models.OpCopyAToB, false)
	assert.False(t, x.Running(), "same operation keeps the entry complete")
	assert.Equal(t, models.StatusDone, x.Status)

	s.SetMergeOperation(x.ID, models.OpNone, false)
	assert.True(t, x.Running())
	assert.Equal(t, models.StatusNone, x.Status)
}
