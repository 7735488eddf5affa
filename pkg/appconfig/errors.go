package appconfig

import "fmt"

// ValidationSource tells whose data failed validation.
type ValidationSource string

const (
	// SourceUpstream marks a malformed document from the country configuration service.
	SourceUpstream ValidationSource = "upstream"
	// SourceInput marks a malformed document sent by the caller.
	SourceInput ValidationSource = "input"
)

// ValidationError reports the first offending field of a document.
type ValidationError struct {
	Source ValidationSource
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s configuration: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("invalid %s configuration: %q %s", e.Source, e.Field, e.Reason)
}

// PersistenceError wraps a failure of the override store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("override store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
