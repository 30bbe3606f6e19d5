package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
)

// Comparison is what a formatter renders after a compare
type Comparison struct {
	RootA    string
	RootB    string
	RootC    string
	Dest     string
	ThreeWay bool

	Rows   []merge.Row
	Status models.DirStatus

	// CompareErrors lists entries that could not be compared
	CompareErrors []string
}

// NewComparison collects the rows and status of a session's tree
func NewComparison(tree *merge.Tree) *Comparison {
	roots := tree.Roots()
	c := &Comparison{
		RootA:    roots.A.String(),
		RootB:    roots.B.String(),
		ThreeWay: tree.ThreeWay(),
		Rows:     tree.Rows(),
		Status:   tree.DirStatus(),
	}
	if roots.C != nil {
		c.RootC = roots.C.String()
	}
	if roots.Dest != nil {
		c.Dest = roots.Dest.String()
	}
	for _, err := range tree.CompareErrors {
		c.CompareErrors = append(c.CompareErrors, err.Error())
	}
	return c
}

// Differences returns the rows that are not equal on every side
func (c *Comparison) Differences() []merge.Row {
	var diffs []merge.Row
	for _, row := range c.Rows {
		if !row.Equal {
			diffs = append(diffs, row)
		}
	}
	return diffs
}

// Formatter defines the interface for output formatting
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Comparison renders the tree and the status report
	Comparison(w io.Writer, c *Comparison) error

	// Report renders the result of one merge run
	Report(w io.Writer, report *models.RunReport) error

	// Error reports an error
	Error(w io.Writer, err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for format ("human" or "json")
func New(format string) (Formatter, error) {
	switch format {
	case "human", "":
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	}
	return nil, &models.ValidationError{Field: "output.format", Message: fmt.Sprintf("unknown format %q", format)}
}
