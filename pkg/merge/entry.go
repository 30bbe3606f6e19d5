// Package merge builds the comparison tree of up to three directory roots,
// suggests an operation for every entry and executes the resulting worklist.
package merge

import (
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// Side identifies one root of a comparison
type Side int

const (
	SideA Side = iota
	SideB
	SideC
	// SideDest is the merge destination; it may coincide with B or C
	SideDest
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	case SideC:
		return "C"
	case SideDest:
		return "dest"
	}
	return "?"
}

var sides = [3]Side{SideA, SideB, SideC}

// EntryID addresses an entry inside its Tree
type EntryID int

const (
	// RootID is the entry of the compared roots themselves
	RootID EntryID = 0

	noEntry EntryID = -1
)

// Entry is one path's comparison record across the roots.
// Entries are owned by their Tree; Parent and Children are indexes into it.
type Entry struct {
	ID       EntryID
	Name     string
	Parent   EntryID
	Children []EntryID

	// Nodes holds the A, B and C snapshots, nil where the path is missing
	Nodes [3]*storage.FileNode

	EqualAB bool
	EqualAC bool
	EqualBC bool

	// Ages is indexed by SideA, SideB and SideC
	Ages            [3]models.Age
	ConflictingAges bool

	Operation models.MergeOperation
	Status    models.OpStatus

	// running is cleared once the operation has been carried out
	running     bool
	simComplete bool
}

func newEntry(id EntryID, name string, parent EntryID) *Entry {
	return &Entry{
		ID:      id,
		Name:    name,
		Parent:  parent,
		Ages:    [3]models.Age{models.AgeNotThere, models.AgeNotThere, models.AgeNotThere},
		running: true,
	}
}

// Node returns the snapshot on side, or nil
func (e *Entry) Node(side Side) *storage.FileNode {
	if side < SideA || side > SideC {
		return nil
	}
	return e.Nodes[side]
}

func (e *Entry) Exists(side Side) bool {
	n := e.Node(side)
	return n != nil && n.Exists()
}

func (e *Entry) IsDir(side Side) bool {
	n := e.Node(side)
	return n != nil && n.IsDir()
}

func (e *Entry) IsLink(side Side) bool {
	n := e.Node(side)
	return n != nil && n.IsSymlink()
}

// Age returns the rank of side
func (e *Entry) Age(side Side) models.Age {
	if side < SideA || side > SideC {
		return models.AgeNotThere
	}
	return e.Ages[side]
}

// HasDir reports whether the entry is a directory on any side
func (e *Entry) HasDir() bool {
	return e.IsDir(SideA) || e.IsDir(SideB) || e.IsDir(SideC)
}

// IsLeaf reports whether the entry has no children in the tree
func (e *Entry) IsLeaf() bool {
	return len(e.Children) == 0
}

// ExistsCount returns on how many sides the entry exists
func (e *Entry) ExistsCount() int {
	n := 0
	for _, s := range sides {
		if e.Exists(s) {
			n++
		}
	}
	return n
}

// Equal returns the equality flag of the pair x, y
func (e *Entry) Equal(x, y Side) bool {
	switch pair(x, y) {
	case pair(SideA, SideB):
		return e.EqualAB
	case pair(SideA, SideC):
		return e.EqualAC
	case pair(SideB, SideC):
		return e.EqualBC
	}
	return false
}

func (e *Entry) setEqual(x, y Side, equal bool) {
	switch pair(x, y) {
	case pair(SideA, SideB):
		e.EqualAB = equal
	case pair(SideA, SideC):
		e.EqualAC = equal
	case pair(SideB, SideC):
		e.EqualBC = equal
	}
}

func pair(x, y Side) int {
	if x > y {
		x, y = y, x
	}
	return int(x)*4 + int(y)
}

// Running reports whether the operation has not been carried out yet
func (e *Entry) Running() bool {
	return e.running
}

func (e *Entry) startOperation() {
	e.running = true
	e.simComplete = false
}

func (e *Entry) endOperation() {
	e.running = false
}

// conflictingFileTypes reports sides that disagree on being a link or a
// directory, or any side that is not a regular file system object
func (e *Entry) conflictingFileTypes() bool {
	for _, s := range sides {
		if n := e.Node(s); n != nil && !n.IsNormal() {
			return true
		}
	}

	if e.IsLink(SideA) || e.IsLink(SideB) || e.IsLink(SideC) {
		for _, s := range sides {
			if e.Exists(s) && !e.IsLink(s) {
				return true
			}
		}
	}

	if e.HasDir() {
		for _, s := range sides {
			if e.Exists(s) && !e.IsDir(s) {
				return true
			}
		}
	}
	return false
}
