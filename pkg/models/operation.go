package models

import (
	"fmt"
	"strings"
)

// MergeOperation is the action scheduled for one comparison entry.
// The numeric values are part of the exported state format and must not be reordered.
type MergeOperation int

const (
	// OpTitle is a placeholder for header rows and is never scheduled
	OpTitle MergeOperation = iota
	// OpNone leaves the entry untouched
	OpNone
	// OpCopyAToB copies the A side over B (sync mode)
	OpCopyAToB
	// OpCopyBToA copies the B side over A (sync mode)
	OpCopyBToA
	// OpDeleteA removes the A side (sync mode)
	OpDeleteA
	// OpDeleteB removes the B side (sync mode)
	OpDeleteB
	// OpDeleteAB removes both sides (sync mode)
	OpDeleteAB
	// OpMergeToA merges A and B into A (sync mode)
	OpMergeToA
	// OpMergeToB merges A and B into B (sync mode)
	OpMergeToB
	// OpMergeToAB merges into B and mirrors the result to A (sync mode)
	OpMergeToAB
	// OpCopyAToDest copies A to the destination
	OpCopyAToDest
	// OpCopyBToDest copies B to the destination
	OpCopyBToDest
	// OpCopyCToDest copies C to the destination
	OpCopyCToDest
	// OpDeleteFromDest removes the entry from the destination
	OpDeleteFromDest
	// OpMergeABCToDest runs a three-way merge into the destination
	OpMergeABCToDest
	// OpMergeABToDest runs a two-way merge into the destination
	OpMergeABToDest
	// OpConflictingFileTypes marks sides that disagree on file, directory or link type
	OpConflictingFileTypes
	// OpChangedAndDeleted marks an entry changed on one side and deleted on the other
	OpChangedAndDeleted
	// OpConflictingAges marks equal timestamps on differing content
	OpConflictingAges
)

var operationNames = map[MergeOperation]string{
	OpTitle:                "title",
	OpNone:                 "none",
	OpCopyAToB:             "copy-a-to-b",
	OpCopyBToA:             "copy-b-to-a",
	OpDeleteA:              "delete-a",
	OpDeleteB:              "delete-b",
	OpDeleteAB:             "delete-ab",
	OpMergeToA:             "merge-to-a",
	OpMergeToB:             "merge-to-b",
	OpMergeToAB:            "merge-to-ab",
	OpCopyAToDest:          "copy-a-to-dest",
	OpCopyBToDest:          "copy-b-to-dest",
	OpCopyCToDest:          "copy-c-to-dest",
	OpDeleteFromDest:       "delete-from-dest",
	OpMergeABCToDest:       "merge-abc-to-dest",
	OpMergeABToDest:        "merge-ab-to-dest",
	OpConflictingFileTypes: "conflicting-file-types",
	OpChangedAndDeleted:    "changed-and-deleted",
	OpConflictingAges:      "conflicting-ages",
}

func (op MergeOperation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// ParseMergeOperation converts a name produced by String back to the operation
func ParseMergeOperation(s string) (MergeOperation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for op, name := range operationNames {
		if name == s {
			return op, nil
		}
	}
	return OpNone, &ValidationError{Field: "operation", Message: fmt.Sprintf("unknown merge operation %q", s)}
}

// MarshalText implements encoding.TextMarshaler
func (op MergeOperation) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (op *MergeOperation) UnmarshalText(text []byte) error {
	parsed, err := ParseMergeOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// IsValid reports whether op is one of the declared operations
func (op MergeOperation) IsValid() bool {
	return op >= OpTitle && op <= OpConflictingAges
}

// IsError reports whether op blocks unattended execution
func (op MergeOperation) IsError() bool {
	return op == OpConflictingFileTypes || op == OpChangedAndDeleted || op == OpConflictingAges
}

// IsSyncOperation reports whether op belongs to the two-root sync family
func (op MergeOperation) IsSyncOperation() bool {
	switch op {
	case OpCopyAToB, OpCopyBToA, OpDeleteA, OpDeleteB, OpDeleteAB, OpMergeToA, OpMergeToB, OpMergeToAB:
		return true
	}
	return false
}

// IsDestOperation reports whether op writes to the destination root
func (op MergeOperation) IsDestOperation() bool {
	switch op {
	case OpCopyAToDest, OpCopyBToDest, OpCopyCToDest, OpDeleteFromDest, OpMergeABCToDest, OpMergeABToDest:
		return true
	}
	return false
}

// IsMerge reports whether op hands files to the single-file merge tool
func (op MergeOperation) IsMerge() bool {
	switch op {
	case OpMergeToA, OpMergeToB, OpMergeToAB, OpMergeABCToDest, OpMergeABToDest:
		return true
	}
	return false
}

// ConflictMessage explains an error operation to the user
func (op MergeOperation) ConflictMessage() string {
	switch op {
	case OpConflictingFileTypes:
		return "the item has a different type in the different folders"
	case OpConflictingAges:
		return "the modification dates of the file are equal but the files are not"
	case OpChangedAndDeleted:
		return "the item was changed in one folder and deleted in the other"
	}
	return ""
}
