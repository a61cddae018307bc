package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownStrategy = errors.New("invalid strategy")
	ErrTasksNotList    = errors.New("tasks must be a list")
	ErrBatchTooLarge   = errors.New("too many tasks in batch")
	ErrInvalidPayload  = errors.New("invalid tasks JSON")
)

// FieldErrors maps a task field to the reason it was rejected.
type FieldErrors map[string]string

// Fields returns the rejected field names in sorted order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError rejects a batch because one of its tasks is malformed.
type ValidationError struct {
	Index  int
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %d failed validation: %s", e.Index, strings.Join(e.Fields.Fields(), ", "))
}
