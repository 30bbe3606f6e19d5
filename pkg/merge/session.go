package merge

import (
	"fmt"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// Config holds the merge policies
type Config struct {
	// SyncMode makes two roots identical instead of filling a destination
	SyncMode bool

	// CopyNewer copies the newer side instead of merging differing files
	CopyNewer bool

	// CreateBackups renames replaced and deleted items to name+BackupExtension
	CreateBackups   bool
	BackupExtension string

	FollowFileLinks bool
	FollowDirLinks  bool
}

// DefaultConfig returns the merge defaults
func DefaultConfig() Config {
	return Config{
		CreateBackups:   true,
		BackupExtension: ".orig",
	}
}

// Session couples a comparison tree with the merge policies and assigns
// operations to its entries
type Session struct {
	tree      *Tree
	config    Config
	decider   Decider
	syncMode  bool
	defaultOp models.MergeOperation
}

// NewSession checks the roots of tree against config and assigns the
// suggested operation to every entry
func NewSession(tree *Tree, config Config) (*Session, error) {
	roots := tree.Roots()
	for _, s := range []Side{SideA, SideB} {
		if n := roots.Node(s); n == nil || !n.IsDir() {
			return nil, &models.ValidationError{Field: "roots", Message: fmt.Sprintf("%s is not a directory", s)}
		}
	}
	if roots.C != nil && !roots.C.IsDir() {
		return nil, &models.ValidationError{Field: "roots", Message: "C is not a directory"}
	}

	threeWay := roots.ThreeWay()
	if threeWay && (roots.DestIs(SideA) || roots.DestIs(SideB)) {
		return nil, &models.ValidationError{Field: "dest", Message: "the destination must not be A or B when three folders are merged"}
	}

	otherDest := !(roots.DestIs(SideA) || roots.DestIs(SideB) || (threeWay && roots.DestIs(SideC)))
	if config.SyncMode && (threeWay || otherDest) {
		return nil, &models.ValidationError{Field: "merge.sync_mode", Message: "sync mode needs exactly two folders and no separate destination"}
	}
	if config.BackupExtension == "" {
		config.BackupExtension = ".orig"
	}

	s := &Session{
		tree:   tree,
		config: config,
		decider: Decider{
			ThreeWay:  threeWay,
			OtherDest: otherDest,
			CopyNewer: config.CopyNewer,
		},
		syncMode: config.SyncMode,
	}

	switch {
	case threeWay:
		s.defaultOp = models.OpMergeABCToDest
	case s.syncMode:
		s.defaultOp = models.OpMergeToAB
	default:
		s.defaultOp = models.OpMergeABToDest
	}

	s.ApplyDefaults()
	return s, nil
}

func (s *Session) Tree() *Tree { return s.tree }
func (s *Session) Config() Config { return s.config }
func (s *Session) SyncMode() bool { return s.syncMode }

// DefaultOperation returns the bulk operation the entries were derived from
func (s *Session) DefaultOperation() models.MergeOperation { return s.defaultOp }

// ApplyDefaults suggests the default operation for every entry below the root
func (s *Session) ApplyDefaults() {
	for _, child := range s.tree.Root().Children {
		s.CalcSuggestedOperation(child, s.defaultOp)
	}
}

// CalcSuggestedOperation assigns the suggested operation for defaultOp to
// id and re-derives its descendants from the result
func (s *Session) CalcSuggestedOperation(id EntryID, defaultOp models.MergeOperation) {
	e := s.tree.Entry(id)
	if e == nil {
		return
	}
	s.SetMergeOperation(id, s.decider.Suggest(e, defaultOp), true)
}

// SetMergeOperation overrides the operation of id. Changing the operation
// makes the entry pending again. With recursive, the children are derived
// from op; error operations pass the session default down instead.
func (s *Session) SetMergeOperation(id EntryID, op models.MergeOperation, recursive bool) {
	e := s.tree.Entry(id)
	if e == nil {
		return
	}

	if op != e.Operation {
		e.startOperation()
		e.Status = models.StatusNone
	}
	e.Operation = op

	if !recursive {
		return
	}
	childOp := op
	if childOp.IsError() {
		childOp = s.defaultOp
	}
	for _, child := range e.Children {
		s.CalcSuggestedOperation(child, childOp)
	}
}
