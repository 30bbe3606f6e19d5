package merge

import (
	"github.com/sdejongh/dirmerge/pkg/models"
)

// Decider maps the state of an entry to a suggested operation
type Decider struct {
	ThreeWay bool

	// OtherDest is set when the destination is none of the compared roots
	OtherDest bool

	// CopyNewer copies the newer side instead of merging differing files
	CopyNewer bool
}

// Suggest returns the operation for e given the requested default.
// Merge defaults run the decision table; any other default is kept, except
// that a copy from a side the entry is missing on becomes a delete.
func (d Decider) Suggest(e *Entry, defaultOp models.MergeOperation) models.MergeOperation {
	if defaultOp == models.OpMergeABCToDest && !d.ThreeWay {
		defaultOp = models.OpMergeABToDest
	}
	if defaultOp == models.OpMergeToAB && d.ThreeWay {
		defaultOp = models.OpMergeABCToDest
	}

	if !defaultOp.IsMerge() {
		return fixedOperation(e, defaultOp)
	}

	var op models.MergeOperation
	if d.ThreeWay {
		op = d.suggestThreeWay(e)
	} else {
		op = d.suggestTwoWay(e, defaultOp)
	}

	if e.conflictingFileTypes() {
		return models.OpConflictingFileTypes
	}
	return op
}

func (d Decider) suggestTwoWay(e *Entry, defaultOp models.MergeOperation) models.MergeOperation {
	inA, inB := e.Exists(SideA), e.Exists(SideB)
	syncFamily := defaultOp.IsSyncOperation()

	switch {
	case e.EqualAB:
		if d.OtherDest {
			return models.OpCopyBToDest
		}
		return models.OpNone

	case inA && inB:
		if !d.CopyNewer || e.IsDir(SideA) {
			return defaultOp
		}
		if e.ConflictingAges {
			return models.OpConflictingAges
		}
		if e.Age(SideA) == models.AgeNew {
			if syncFamily {
				return models.OpCopyAToB
			}
			return models.OpCopyAToDest
		}
		if syncFamily {
			return models.OpCopyBToA
		}
		return models.OpCopyBToDest

	case inB:
		switch defaultOp {
		case models.OpMergeABToDest:
			return models.OpCopyBToDest
		case models.OpMergeToB:
			return models.OpNone
		}
		return models.OpCopyBToA

	case inA:
		switch defaultOp {
		case models.OpMergeABToDest:
			return models.OpCopyAToDest
		case models.OpMergeToA:
			return models.OpNone
		}
		return models.OpCopyAToB
	}
	return models.OpNone
}

func (d Decider) suggestThreeWay(e *Entry) models.MergeOperation {
	inA, inB, inC := e.Exists(SideA), e.Exists(SideB), e.Exists(SideC)

	switch {
	case e.EqualAB && e.EqualAC:
		if d.OtherDest {
			return models.OpCopyCToDest
		}
		return models.OpNone

	case inA && inB && inC:
		switch {
		case e.EqualAB || e.EqualBC:
			return models.OpCopyCToDest
		case e.EqualAC:
			return models.OpCopyBToDest
		}
		return models.OpMergeABCToDest

	case inA && inB:
		if e.EqualAB {
			return models.OpDeleteFromDest
		}
		return models.OpChangedAndDeleted

	case inA && inC:
		if e.EqualAC {
			return models.OpDeleteFromDest
		}
		return models.OpChangedAndDeleted

	case inB && inC:
		if e.EqualBC {
			return models.OpCopyCToDest
		}
		return models.OpMergeABCToDest

	case inC:
		return models.OpCopyCToDest
	case inB:
		return models.OpCopyBToDest
	case inA:
		return models.OpDeleteFromDest
	}
	return models.OpNone
}

// fixedOperation keeps op unless it copies from a side e is missing on,
// in which case the copy becomes the matching delete
func fixedOperation(e *Entry, op models.MergeOperation) models.MergeOperation {
	switch op {
	case models.OpCopyAToB:
		if !e.Exists(SideA) {
			return models.OpDeleteB
		}
	case models.OpCopyBToA:
		if !e.Exists(SideB) {
			return models.OpDeleteA
		}
	case models.OpCopyAToDest:
		if !e.Exists(SideA) {
			return models.OpDeleteFromDest
		}
	case models.OpCopyBToDest:
		if !e.Exists(SideB) {
			return models.OpDeleteFromDest
		}
	case models.OpCopyCToDest:
		if !e.Exists(SideC) {
			return models.OpDeleteFromDest
		}
	}
	return op
}
