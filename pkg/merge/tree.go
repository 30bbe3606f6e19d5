package merge

import (
	"sort"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// Roots are the directories of one comparison. C is nil for a two-way
// comparison; Dest defaults to C when present, else to B.
type Roots struct {
	A    *storage.FileNode
	B    *storage.FileNode
	C    *storage.FileNode
	Dest *storage.FileNode
}

// Node returns the root directory of side
func (r Roots) Node(side Side) *storage.FileNode {
	switch side {
	case SideA:
		return r.A
	case SideB:
		return r.B
	case SideC:
		return r.C
	case SideDest:
		return r.Dest
	}
	return nil
}

// ThreeWay reports whether a C root takes part
func (r Roots) ThreeWay() bool {
	return r.C != nil
}

// DestIs reports whether the destination is the root of side
func (r Roots) DestIs(side Side) bool {
	return sameNode(r.Dest, r.Node(side))
}

func sameNode(x, y *storage.FileNode) bool {
	if x == nil || y == nil {
		return false
	}
	return x.Backend() == y.Backend() && x.Path() == y.Path()
}

// Tree is the comparison tree. It owns all entries; the entry at RootID
// stands for the roots themselves.
type Tree struct {
	roots   Roots
	entries []*Entry
	byPath  map[string]EntryID

	// ignoreCase pairs names that differ only in case
	ignoreCase bool

	// CompareErrors lists the comparisons that failed while building
	CompareErrors []error
}

func newTree(roots Roots) *Tree {
	if roots.Dest == nil {
		if roots.C != nil {
			roots.Dest = roots.C
		} else {
			roots.Dest = roots.B
		}
	}

	root := newEntry(RootID, "", noEntry)
	root.Nodes = [3]*storage.FileNode{roots.A, roots.B, roots.C}

	return &Tree{
		roots:   roots,
		entries: []*Entry{root},
		byPath:  map[string]EntryID{"": RootID},
	}
}

func (t *Tree) Roots() Roots { return t.roots }
func (t *Tree) ThreeWay() bool { return t.roots.ThreeWay() }
func (t *Tree) Root() *Entry { return t.entries[RootID] }

// Entry returns the entry id, or nil
func (t *Tree) Entry(id EntryID) *Entry {
	if id < 0 || int(id) >= len(t.entries) {
		return nil
	}
	return t.entries[id]
}

// Len returns the number of entries below the root
func (t *Tree) Len() int {
	return len(t.entries) - 1
}

// Lookup finds the entry for a "/"-separated path below the roots
func (t *Tree) Lookup(subPath string) (*Entry, bool) {
	id, ok := t.byPath[t.key(subPath)]
	if !ok {
		return nil, false
	}
	return t.entries[id], true
}

func (t *Tree) key(subPath string) string {
	if t.ignoreCase {
		return strings.ToLower(subPath)
	}
	return subPath
}

// ensure returns the entry for subPath, creating it and its parents. The
// first spelling of a name is the one the entry keeps.
func (t *Tree) ensure(subPath string) *Entry {
	if id, ok := t.byPath[t.key(subPath)]; ok {
		return t.entries[id]
	}

	parentPath, name := "", subPath
	if i := strings.LastIndex(subPath, "/"); i >= 0 {
		parentPath, name = subPath[:i], subPath[i+1:]
	}
	parent := t.ensure(parentPath)

	e := newEntry(EntryID(len(t.entries)), name, parent.ID)
	t.entries = append(t.entries, e)
	t.byPath[t.key(subPath)] = e.ID
	parent.Children = append(parent.Children, e.ID)
	return e
}

// SubPath returns the "/"-separated path of id below the roots
func (t *Tree) SubPath(id EntryID) string {
	var parts []string
	for e := t.Entry(id); e != nil && e.ID != RootID; e = t.Entry(e.Parent) {
		parts = append(parts, e.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the children of that entry.
func (t *Tree) Walk(id EntryID, fn func(e *Entry) bool) {
	e := t.Entry(id)
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, child := range e.Children {
		t.Walk(child, fn)
	}
}

// descendants returns the pre-order entries below id, id excluded
func (t *Tree) descendants(id EntryID) []*Entry {
	var result []*Entry
	t.Walk(id, func(e *Entry) bool {
		if e.ID != id {
			result = append(result, e)
		}
		return true
	})
	return result
}

// FullName returns the path of the entry on side in that root's backend.
// A missing entry resolves below the root; the destination resolves to C or
// B when it is one of those roots.
func (t *Tree) FullName(id EntryID, side Side) string {
	_, p := t.location(id, side)
	return p
}

func (t *Tree) location(id EntryID, side Side) (storage.Backend, string) {
	if side == SideDest {
		switch {
		case t.roots.ThreeWay() && t.roots.DestIs(SideC):
			side = SideC
		case t.roots.DestIs(SideB):
			side = SideB
		}
	}

	e := t.Entry(id)
	if n := e.Node(side); n != nil && n.Exists() {
		return n.Backend(), n.Path()
	}

	root := t.roots.Node(side)
	if root == nil {
		return nil, ""
	}
	sub := t.SubPath(id)
	if sub == "" {
		return root.Backend(), root.Path()
	}
	return root.Backend(), root.Backend().Join(root.Path(), sub)
}

// sortChildren orders every child list: directories first, then by name
// ignoring case
func (t *Tree) sortChildren() {
	for _, e := range t.entries {
		children := e.Children
		sort.SliceStable(children, func(i, j int) bool {
			a, b := t.entries[children[i]], t.entries[children[j]]
			if a.HasDir() != b.HasDir() {
				return a.HasDir()
			}
			la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if la != lb {
				return la < lb
			}
			return a.Name < b.Name
		})
	}
}

// Row is the observer view of one entry
type Row struct {
	ID        EntryID               `json:"-"`
	Path      string                `json:"path"`
	Depth     int                   `json:"depth"`
	IsDir     bool                  `json:"is_dir"`
	Exists    [3]bool               `json:"exists"`
	Ages      [3]models.Age         `json:"ages"`
	Equal     bool                  `json:"equal"`
	Operation models.MergeOperation `json:"operation"`
	Status    models.OpStatus       `json:"status"`
}

// Rows returns one row per entry below the root in pre-order
func (t *Tree) Rows() []Row {
	rows := make([]Row, 0, t.Len())
	var visit func(id EntryID, prefix string, depth int)
	visit = func(id EntryID, prefix string, depth int) {
		for _, child := range t.entries[id].Children {
			e := t.entries[child]
			path := e.Name
			if prefix != "" {
				path = prefix + "/" + e.Name
			}
			rows = append(rows, Row{
				ID:        e.ID,
				Path:      path,
				Depth:     depth,
				IsDir:     e.HasDir(),
				Exists:    [3]bool{e.Exists(SideA), e.Exists(SideB), e.Exists(SideC)},
				Ages:      e.Ages,
				Equal:     t.isEqual(e),
				Operation: e.Operation,
				Status:    e.Status,
			})
			visit(child, path, depth+1)
		}
	}
	visit(RootID, "", 0)
	return rows
}

func (t *Tree) isEqual(e *Entry) bool {
	if t.ThreeWay() {
		return e.EqualAB && e.EqualAC
	}
	return e.EqualAB
}

// DirStatus counts files, directories, equal files and the files that need
// a manual merge
func (t *Tree) DirStatus() models.DirStatus {
	var status models.DirStatus
	for _, e := range t.entries[1:] {
		if e.HasDir() {
			status.Dirs++
			continue
		}
		status.Files++
		if t.isEqual(e) {
			status.EqualFiles++
		} else if e.Operation == models.OpMergeABCToDest || e.Operation == models.OpMergeABToDest {
			status.ManualMerges++
		}
	}
	return status
}
