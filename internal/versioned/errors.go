package versioned

import (
	"fmt"
	"strings"
)

// DeserializationError reports that a cached document does not have the shape
// a typed view expects. It never wraps transport or storage failures.
type DeserializationError struct {
	Target   string // Go type being decoded into
	Path     string // failing field, empty when the document root is at fault
	Expected string
	Actual   string
	Err      error
}

func (e *DeserializationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot deserialize registry value into %s", e.Target)
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
