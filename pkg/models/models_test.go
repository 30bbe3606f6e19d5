package models

import (
	"encoding/json"
	"testing"
)

// ============== MergeOperation Tests ==============

func TestMergeOperationNumbering(t *testing.T) {
	// The exported state stores operations as integers
	tests := []struct {
		op       MergeOperation
		expected int
	}{
		{OpTitle, 0},
		{OpNone, 1},
		{OpCopyAToB, 2},
		{OpMergeToAB, 9},
		{OpCopyAToDest, 10},
		{OpDeleteFromDest, 13},
		{OpMergeABCToDest, 14},
		{OpMergeABToDest, 15},
		{OpConflictingFileTypes, 16},
		{OpChangedAndDeleted, 17},
		{OpConflictingAges, 18},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if int(tt.op) != tt.expected {
				t.Errorf("%s = %d, want %d", tt.op, int(tt.op), tt.expected)
			}
		})
	}
}

func TestMergeOperationFamilies(t *testing.T) {
	for op := OpTitle; op <= OpConflictingAges; op++ {
		families := 0
		if op.IsSyncOperation() {
			families++
		}
		if op.IsDestOperation() {
			families++
		}
		if op.IsError() {
			families++
		}
		switch op {
		case OpTitle, OpNone:
			if families != 0 {
				t.Errorf("%s should not belong to any family", op)
			}
		default:
			if families != 1 {
				t.Errorf("%s belongs to %d families, want 1", op, families)
			}
		}
	}
}

func TestParseMergeOperation(t *testing.T) {
	t.Run("RoundTripNames", func(t *testing.T) {
		for op := OpTitle; op <= OpConflictingAges; op++ {
			parsed, err := ParseMergeOperation(op.String())
			if err != nil {
				t.Fatalf("ParseMergeOperation(%q) error: %v", op.String(), err)
			}
			if parsed != op {
				t.Errorf("ParseMergeOperation(%q) = %s", op.String(), parsed)
			}
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseMergeOperation("explode")
		if err == nil {
			t.Fatal("expected error for unknown operation")
		}
		var vErr *ValidationError
		if ve, ok := err.(*ValidationError); !ok {
			t.Errorf("error type = %T, want %T", err, vErr)
		} else if ve.Field != "operation" {
			t.Errorf("Field = %s, want operation", ve.Field)
		}
	})
}

func TestMergeOperationJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Op MergeOperation `json:"op"`
	}{OpCopyBToDest})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"op":"copy-b-to-dest"}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestConflictMessage(t *testing.T) {
	for op := OpTitle; op <= OpConflictingAges; op++ {
		msg := op.ConflictMessage()
		if op.IsError() && msg == "" {
			t.Errorf("%s has no conflict message", op)
		}
		if !op.IsError() && msg != "" {
			t.Errorf("%s should not have a conflict message", op)
		}
	}
}

// ============== Age / Status Tests ==============

func TestAgeValues(t *testing.T) {
	tests := []struct {
		age      Age
		expected int
		name     string
	}{
		{AgeNew, 0, "new"},
		{AgeMiddle, 1, "middle"},
		{AgeOld, 2, "old"},
		{AgeNotThere, 3, "not-there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.age) != tt.expected {
				t.Errorf("int(%s) = %d, want %d", tt.name, int(tt.age), tt.expected)
			}
			if tt.age.String() != tt.name {
				t.Errorf("String() = %s, want %s", tt.age.String(), tt.name)
			}
		})
	}

	if Age(7).IsValid() {
		t.Error("Age(7) should be invalid")
	}
}

func TestOpStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   OpStatus
		terminal bool
	}{
		{StatusNone, false},
		{StatusToDo, false},
		{StatusInProgress, false},
		{StatusDone, true},
		{StatusSkipped, true},
		{StatusError, false},
		{StatusNotSaved, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

// ============== Report Tests ==============

func TestDirStatus(t *testing.T) {
	s := DirStatus{Files: 10, Dirs: 3, EqualFiles: 7, ManualMerges: 2}
	if s.DifferentFiles() != 3 {
		t.Errorf("DifferentFiles() = %d, want 3", s.DifferentFiles())
	}
}

func TestRunStatusExitCode(t *testing.T) {
	tests := []struct {
		status   RunStatus
		expected int
	}{
		{RunComplete, 0},
		{RunWaiting, 1},
		{RunFailed, 2},
		{RunCancelled, 3},
		{RunStatus("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "scan.file_pattern", Message: "must not be empty"}
	if err.Error() != "scan.file_pattern: must not be empty" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestAgeText(t *testing.T) {
	for _, a := range []Age{AgeNew, AgeMiddle, AgeOld, AgeNotThere} {
		text, err := a.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error = %v", a, err)
		}
		var got Age
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", text, err)
		}
		if got != a {
			t.Errorf("UnmarshalText(%s) = %d, want %d", text, got, a)
		}
	}

	var a Age
	if err := a.UnmarshalText([]byte("ancient")); err == nil {
		t.Error("UnmarshalText(ancient) should fail")
	}
}
