package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct{}

// JSONComparisonData is the document written for a comparison
type JSONComparisonData struct {
	Roots   JSONRootsData   `json:"roots"`
	Entries []JSONEntryData `json:"entries"`
	Status  JSONStatusData  `json:"status"`
	Errors  []string        `json:"compare_errors,omitempty"`
}

// JSONRootsData lists the compared directories
type JSONRootsData struct {
	A    string `json:"a"`
	B    string `json:"b"`
	C    string `json:"c,omitempty"`
	Dest string `json:"dest,omitempty"`
}

// JSONEntryData represents one entry of the tree
type JSONEntryData struct {
	Path      string                `json:"path"`
	Dir       bool                  `json:"dir,omitempty"`
	Sides     map[string]string     `json:"sides"`
	Equal     bool                  `json:"equal"`
	Operation models.MergeOperation `json:"operation"`
	Status    models.OpStatus       `json:"status,omitempty"`
}

// JSONStatusData represents the status report
type JSONStatusData struct {
	models.DirStatus
	DifferentFiles int `json:"different_files"`
}

// JSONReportData represents a merge run
type JSONReportData struct {
	*models.RunReport
	DurationMs int64 `json:"duration_ms"`
	ExitCode   int   `json:"exit_code"`
}

// JSONErrorData represents an error document
type JSONErrorData struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Comparison writes the tree and status as one JSON document
func (f *JSONFormatter) Comparison(w io.Writer, c *Comparison) error {
	data := JSONComparisonData{
		Roots:   JSONRootsData{A: c.RootA, B: c.RootB, C: c.RootC, Dest: c.Dest},
		Entries: make([]JSONEntryData, 0, len(c.Rows)),
		Status:  JSONStatusData{DirStatus: c.Status, DifferentFiles: c.Status.DifferentFiles()},
		Errors:  c.CompareErrors,
	}

	names := []string{"a", "b", "c"}
	for _, row := range c.Rows {
		entry := JSONEntryData{
			Path:      row.Path,
			Dir:       row.IsDir,
			Sides:     make(map[string]string),
			Equal:     row.Equal,
			Operation: row.Operation,
			Status:    row.Status,
		}
		for i, name := range names {
			if i == 2 && !c.ThreeWay {
				break
			}
			entry.Sides[name] = row.Ages[i].String()
		}
		data.Entries = append(data.Entries, entry)
	}
	return writeJSON(w, data)
}

// Report writes the run report as one JSON document
func (f *JSONFormatter) Report(w io.Writer, report *models.RunReport) error {
	return writeJSON(w, JSONReportData{
		RunReport:  report,
		DurationMs: report.Duration.Milliseconds(),
		ExitCode:   report.Status.ExitCode(),
	})
}

// Error writes an error document
func (f *JSONFormatter) Error(w io.Writer, err error) error {
	return writeJSON(w, JSONErrorData{Timestamp: time.Now(), Error: err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
