package merge

import (
	"sort"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// forceTypeEquality clears the equality of pairs that disagree on being a
// link or a directory
func (e *Entry) forceTypeEquality() {
	pairs := [][2]Side{{SideA, SideB}, {SideA, SideC}, {SideB, SideC}}
	for _, p := range pairs {
		if e.IsLink(p[0]) != e.IsLink(p[1]) || e.IsDir(p[0]) != e.IsDir(p[1]) {
			e.setEqual(p[0], p[1], false)
		}
	}
}

// calcAges ranks the sides by modification time. Sides judged equal share
// a rank. Sides with the same time but different content end up unranked
// by the walk and are ranked afterwards with ConflictingAges set.
func (e *Entry) calcAges() {
	e.Ages = [3]models.Age{models.AgeNotThere, models.AgeNotThere, models.AgeNotThere}
	e.ConflictingAges = false

	// Later sides replace earlier ones with the same time
	byTime := make(map[int64]Side)
	var times []int64
	for _, s := range sides {
		if !e.Exists(s) {
			continue
		}
		t := e.Node(s).ModTime().UnixNano()
		if _, ok := byTime[t]; !ok {
			times = append(times, t)
		}
		byTime[t] = s
	}
	sort.Slice(times, func(i, j int) bool { return times[i] > times[j] })

	age := models.AgeNew
	for _, t := range times {
		s := byTime[t]
		if e.Ages[s] != models.AgeNotThere {
			continue
		}
		e.Ages[s] = age
		age++
		for _, other := range sides {
			if other != s && e.Equal(s, other) {
				e.Ages[other] = e.Ages[s]
				age++
			}
		}
	}

	for _, s := range []Side{SideC, SideB, SideA} {
		if e.Exists(s) && e.Ages[s] == models.AgeNotThere {
			e.Ages[s] = age
			age++
			e.ConflictingAges = true
		}
	}

	e.anchorOldest()
}

// updateAge re-ranks directories: C is newest, then B, then A, with
// equal sides sharing a rank. Files keep the ranks from their timestamps.
func (e *Entry) updateAge() {
	if !e.HasDir() {
		return
	}

	e.Ages = [3]models.Age{models.AgeNotThere, models.AgeNotThere, models.AgeNotThere}
	age := models.AgeNew
	if e.Exists(SideC) {
		e.Ages[SideC] = age
		if e.EqualAC {
			e.Ages[SideA] = age
		}
		if e.EqualBC {
			e.Ages[SideB] = age
		}
		age = models.AgeMiddle
	}
	if e.Exists(SideB) && e.Ages[SideB] == models.AgeNotThere {
		e.Ages[SideB] = age
		if e.EqualAB {
			e.Ages[SideA] = age
		}
		age = models.AgeOld
	}
	if e.Exists(SideA) && e.Ages[SideA] == models.AgeNotThere {
		e.Ages[SideA] = age
	}
	e.anchorOldest()
}

// anchorOldest turns Middle into Old when nothing is Old
func (e *Entry) anchorOldest() {
	for _, a := range e.Ages {
		if a == models.AgeOld {
			return
		}
	}
	for i, a := range e.Ages {
		if a == models.AgeMiddle {
			e.Ages[i] = models.AgeOld
		}
	}
}

// updateDirectoryOrLink marks pairs that agree on dir-ness and link-ness as
// equal; directory contents are accounted for later by updateParents
func (e *Entry) updateDirectoryOrLink() {
	changed := false
	pairs := [][2]Side{{SideA, SideB}, {SideB, SideC}, {SideA, SideC}}
	for _, p := range pairs {
		if !e.Equal(p[0], p[1]) && e.IsDir(p[0]) == e.IsDir(p[1]) && e.IsLink(p[0]) == e.IsLink(p[1]) {
			e.setEqual(p[0], p[1], true)
			changed = true
		}
	}
	if changed {
		e.updateAge()
	}
}

// updateParents clears the equality of every ancestor for each pair that
// is unequal on e. It stops at the first ancestor that does not change.
func (t *Tree) updateParents(e *Entry) {
	for parent := t.Entry(e.Parent); parent != nil; parent = t.Entry(parent.Parent) {
		changed := false
		if !e.EqualAB && parent.EqualAB {
			parent.EqualAB = false
			changed = true
		}
		if !e.EqualAC && parent.EqualAC {
			parent.EqualAC = false
			changed = true
		}
		if !e.EqualBC && parent.EqualBC {
			parent.EqualBC = false
			changed = true
		}
		if !changed {
			return
		}
		parent.updateAge()
	}
}
