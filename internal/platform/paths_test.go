package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSamePath(t *testing.T) {
	dir := t.TempDir()

	if !SamePath(dir, filepath.Join(dir, "sub", "..")) {
		t.Errorf("SamePath(%q, %q/sub/..) = false, want true", dir, dir)
	}
	if SamePath(dir, filepath.Join(dir, "sub")) {
		t.Errorf("SamePath(%q, %q/sub) = true, want false", dir, dir)
	}
}

func TestIsWithin(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"child", filepath.Join(dir, "a"), true},
		{"grandchild", filepath.Join(dir, "a", "b"), true},
		{"same", dir, false},
		{"sibling prefix", dir + "-other", false},
		{"parent", filepath.Dir(dir), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithin(dir, tt.path); got != tt.want {
				t.Errorf("IsWithin(%q, %q) = %v, want %v", dir, tt.path, got, tt.want)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	var pathErr *PathError
	if err := ValidatePath(""); !errors.As(err, &pathErr) {
		t.Errorf("ValidatePath(\"\") = %v, want *PathError", err)
	}
	if err := ValidatePath(t.TempDir()); err != nil {
		t.Errorf("ValidatePath(tempdir) = %v, want nil", err)
	}
}
