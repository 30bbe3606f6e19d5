package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct{}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Comparison prints one line per entry followed by the status report
func (f *HumanFormatter) Comparison(w io.Writer, c *Comparison) error {
	fmt.Fprintf(w, "A: %s\n", c.RootA)
	fmt.Fprintf(w, "B: %s\n", c.RootB)
	if c.ThreeWay {
		fmt.Fprintf(w, "C: %s\n", c.RootC)
	}
	if c.Dest != "" {
		fmt.Fprintf(w, "Destination: %s\n", c.Dest)
	}
	fmt.Fprintf(w, "\n")

	for _, row := range c.Rows {
		fmt.Fprintln(w, formatRow(row, c.ThreeWay))
	}
	if len(c.Rows) > 0 {
		fmt.Fprintf(w, "\n")
	}

	writeStatus(w, c.Status)

	if len(c.CompareErrors) > 0 {
		fmt.Fprintf(w, "\nComparison errors:\n")
		for _, e := range c.CompareErrors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	return nil
}

// formatRow renders presence and age per side, then the operation
func formatRow(row merge.Row, threeWay bool) string {
	var b strings.Builder
	n := 2
	if threeWay {
		n = 3
	}
	for i := 0; i < n; i++ {
		b.WriteString(ageMark(row.Exists[i], row.Ages[i]))
		b.WriteByte(' ')
	}
	if row.Equal {
		b.WriteString("= ")
	} else {
		b.WriteString("! ")
	}

	name := strings.Repeat("  ", row.Depth) + lastSegment(row.Path)
	if row.IsDir {
		name += "/"
	}
	fmt.Fprintf(&b, "%-40s %s", name, row.Operation)
	if row.Status != models.StatusNone {
		fmt.Fprintf(&b, " [%s]", row.Status)
	}
	return b.String()
}

func ageMark(exists bool, age models.Age) string {
	if !exists {
		return "-"
	}
	switch age {
	case models.AgeNew:
		return "N"
	case models.AgeMiddle:
		return "M"
	case models.AgeOld:
		return "O"
	}
	return "?"
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func writeStatus(w io.Writer, s models.DirStatus) {
	fmt.Fprintf(w, "Status:\n")
	fmt.Fprintf(w, "  Subfolders:      %d\n", s.Dirs)
	fmt.Fprintf(w, "  Files:           %d\n", s.Files)
	fmt.Fprintf(w, "  Equal files:     %d\n", s.EqualFiles)
	fmt.Fprintf(w, "  Different files: %d\n", s.DifferentFiles())
	fmt.Fprintf(w, "  Manual merges:   %d\n", s.ManualMerges)
}

// Report prints the run log and summary
func (f *HumanFormatter) Report(w io.Writer, report *models.RunReport) error {
	if report.Simulated {
		fmt.Fprintf(w, "Simulated merge:\n")
	}
	for _, line := range report.Log {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(report.Log) > 0 {
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "Merge %s in %s\n", report.Status, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Processed: %d\n", report.Processed)
	fmt.Fprintf(w, "  Done:      %d\n", report.Done)
	fmt.Fprintf(w, "  Skipped:   %d\n", report.Skipped)

	if report.PendingMerge != "" {
		fmt.Fprintf(w, "\nWaiting for the merge result of %s\n", report.PendingMerge)
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  %s (%s): %s\n", err.Path, err.Operation, err.Error)
		}
	}
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
