package merge

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// StateRecord is the exported state of one entry
type StateRecord struct {
	SubPath           string
	Exists            [3]bool
	Dir               [3]bool
	Link              [3]bool
	EqualAB           bool
	EqualAC           bool
	EqualBC           bool
	Ages              [3]models.Age
	ConflictingAges   bool
	Operation         models.MergeOperation
	OperationComplete bool
}

// StateRecords returns the state of every entry below the root in pre-order
func (t *Tree) StateRecords() []StateRecord {
	records := make([]StateRecord, 0, t.Len())
	for _, e := range t.descendants(RootID) {
		r := StateRecord{
			SubPath:           t.SubPath(e.ID),
			EqualAB:           e.EqualAB,
			EqualAC:           e.EqualAC,
			EqualBC:           e.EqualBC,
			Ages:              e.Ages,
			ConflictingAges:   e.ConflictingAges,
			Operation:         e.Operation,
			OperationComplete: !e.running,
		}
		for _, s := range sides {
			r.Exists[s] = e.Exists(s)
			r.Dir[s] = e.IsDir(s)
			r.Link[s] = e.IsLink(s)
		}
		records = append(records, r)
	}
	return records
}

// WriteState writes the tree as one "{ key=value ... }" block per entry
func (t *Tree) WriteState(w io.Writer) error {
	return WriteState(w, t.StateRecords())
}

// WriteState writes records in the key=value block format
func WriteState(w io.Writer, records []StateRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		values := r.values()
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		bw.WriteString("{\n")
		for _, k := range keys {
			bw.WriteString(k)
			bw.WriteByte('=')
			bw.WriteString(values[k])
			bw.WriteByte('\n')
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}

func (r StateRecord) values() map[string]string {
	v := map[string]string{
		"SubPath":           r.SubPath,
		"EqualAB":           formatBool(r.EqualAB),
		"EqualAC":           formatBool(r.EqualAC),
		"EqualBC":           formatBool(r.EqualBC),
		"MergeOperation":    strconv.Itoa(int(r.Operation)),
		"OperationComplete": formatBool(r.OperationComplete),
		"ConflictingAges":   formatBool(r.ConflictingAges),
	}
	for _, s := range sides {
		name := s.String()
		v["ExistsIn"+name] = formatBool(r.Exists[s])
		v["Dir"+name] = formatBool(r.Dir[s])
		v["Link"+name] = formatBool(r.Link[s])
		v["Age"+name] = strconv.Itoa(int(r.Ages[s]))
	}
	return v
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ReadState parses the key=value block format. Unknown keys are ignored.
func ReadState(r io.Reader) ([]StateRecord, error) {
	var records []StateRecord
	var current map[string]string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.TrimSpace(text) == "":
		case text == "{":
			if current != nil {
				return nil, fmt.Errorf("line %d: nested block", line)
			}
			current = make(map[string]string)
		case text == "}":
			if current == nil {
				return nil, fmt.Errorf("line %d: unexpected end of block", line)
			}
			record, err := parseRecord(current)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			records = append(records, record)
			current = nil
		default:
			if current == nil {
				return nil, fmt.Errorf("line %d: value outside of a block", line)
			}
			key, value, ok := strings.Cut(text, "=")
			if !ok {
				return nil, fmt.Errorf("line %d: missing '='", line)
			}
			current[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("unterminated block at end of state")
	}
	return records, nil
}

func parseRecord(values map[string]string) (StateRecord, error) {
	var r StateRecord
	var err error

	boolValue := func(key string) bool {
		v, ok := values[key]
		if !ok || err != nil {
			return false
		}
		switch v {
		case "1", "true":
			return true
		case "0", "false", "":
			return false
		}
		err = fmt.Errorf("invalid value %q for %s", v, key)
		return false
	}
	intValue := func(key string) int {
		v, ok := values[key]
		if !ok || err != nil {
			return 0
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			err = fmt.Errorf("invalid value %q for %s", v, key)
		}
		return n
	}

	r.SubPath = values["SubPath"]
	r.EqualAB = boolValue("EqualAB")
	r.EqualAC = boolValue("EqualAC")
	r.EqualBC = boolValue("EqualBC")
	r.ConflictingAges = boolValue("ConflictingAges")
	r.OperationComplete = boolValue("OperationComplete")
	r.Operation = models.MergeOperation(intValue("MergeOperation"))
	for _, s := range sides {
		name := s.String()
		r.Exists[s] = boolValue("ExistsIn" + name)
		r.Dir[s] = boolValue("Dir" + name)
		r.Link[s] = boolValue("Link" + name)
		r.Ages[s] = models.AgeNotThere
		if _, ok := values["Age"+name]; ok {
			r.Ages[s] = models.Age(intValue("Age" + name))
		}
	}
	if err != nil {
		return r, err
	}
	if !r.Operation.IsValid() {
		return r, fmt.Errorf("invalid merge operation %d", r.Operation)
	}
	for _, a := range r.Ages {
		if !a.IsValid() {
			return r, fmt.Errorf("invalid age %d", a)
		}
	}
	return r, nil
}

// ApplyState restores the operation and completion of the entries named in
// records. It returns the number of records that matched an entry.
func (t *Tree) ApplyState(records []StateRecord) int {
	applied := 0
	for _, r := range records {
		e, ok := t.Lookup(r.SubPath)
		if !ok || e.ID == RootID {
			continue
		}
		e.Operation = r.Operation
		e.running = !r.OperationComplete
		if r.OperationComplete {
			e.Status = models.StatusDone
		} else {
			e.Status = models.StatusNone
		}
		applied++
	}
	return applied
}

// SaveStateFile writes the state of t to path atomically
func SaveStateFile(path string, t *Tree) error {
	var buf bytes.Buffer
	if err := t.WriteState(&buf); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	// Write atomically using temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize state file: %w", err)
	}
	return nil
}

// LoadStateFile reads a state file written by SaveStateFile
func LoadStateFile(path string) ([]StateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()
	return ReadState(f)
}
