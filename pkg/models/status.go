package models

// OpStatus is the execution state of one entry
type OpStatus string

const (
	// StatusNone means the entry has not been scheduled
	StatusNone OpStatus = ""
	// StatusToDo means the entry is scheduled
	StatusToDo OpStatus = "todo"
	// StatusInProgress means the entry (or one of its children) is being processed
	StatusInProgress OpStatus = "in-progress"
	// StatusDone means the operation completed
	StatusDone OpStatus = "done"
	// StatusSkipped means the user skipped the entry after an error
	StatusSkipped OpStatus = "skipped"
	// StatusError means the last attempt failed
	StatusError OpStatus = "error"
	// StatusNotSaved means a single-file merge was left without saving
	StatusNotSaved OpStatus = "not-saved"
)

// IsTerminal reports whether the entry needs no further processing
func (s OpStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped
}

func (s OpStatus) String() string {
	if s == StatusNone {
		return "none"
	}
	return string(s)
}
