package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
)

// WriteDifferencesReport writes the entries that differ to a file.
// Format can be "human" or "json".
func WriteDifferencesReport(c *Comparison, path string, format string) error {
	diffs := c.Differences()
	if len(diffs) == 0 {
		// No differences - don't create empty file
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create differences file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		return writeDifferencesJSON(c, diffs, file)
	default: // "human"
		return writeDifferencesHuman(c, diffs, file)
	}
}

// writeDifferencesHuman lists the differences grouped by operation
func writeDifferencesHuman(c *Comparison, diffs []merge.Row, w io.Writer) error {
	fmt.Fprintf(w, "Differences Report\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "A: %s\n", c.RootA)
	fmt.Fprintf(w, "B: %s\n", c.RootB)
	if c.ThreeWay {
		fmt.Fprintf(w, "C: %s\n", c.RootC)
	}
	fmt.Fprintf(w, "\nTotal Differences: %d\n\n", len(diffs))

	byOp := make(map[models.MergeOperation][]merge.Row)
	for _, row := range diffs {
		byOp[row.Operation] = append(byOp[row.Operation], row)
	}
	ops := make([]models.MergeOperation, 0, len(byOp))
	for op := range byOp {
		ops = append(ops, op)
	}
	// Conflicts first, then by operation number
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].IsError() != ops[j].IsError() {
			return ops[i].IsError()
		}
		return ops[i] < ops[j]
	})

	for _, op := range ops {
		rows := byOp[op]
		label := fmt.Sprintf("%s (%d entries)", op, len(rows))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))
		for _, row := range rows {
			fmt.Fprintf(w, "  %s\n", row.Path)
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}

// writeDifferencesJSON writes differences in JSON format
func writeDifferencesJSON(c *Comparison, diffs []merge.Row, w io.Writer) error {
	output := struct {
		Generated   string      `json:"generated"`
		RootA       string      `json:"root_a"`
		RootB       string      `json:"root_b"`
		RootC       string      `json:"root_c,omitempty"`
		TotalCount  int         `json:"total_count"`
		Differences []merge.Row `json:"differences"`
	}{
		Generated:   time.Now().Format(time.RFC3339),
		RootA:       c.RootA,
		RootB:       c.RootB,
		RootC:       c.RootC,
		TotalCount:  len(diffs),
		Differences: diffs,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
