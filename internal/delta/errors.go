package delta

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotATable is wrapped by TableAccessError when the root has no log.
var ErrNotATable = errors.New("no delta log found")

// TableAccessError reports that the table log could not be read or replayed.
type TableAccessError struct {
	Root string
	Err  error
}

func (e *TableAccessError) Error() string {
	return fmt.Sprintf("delta: cannot access table at %q: %v", e.Root, e.Err)
}

func (e *TableAccessError) Unwrap() error { return e.Err }

// RetentionViolation is returned when the requested retention window is
// shorter than the table's deleted-file retention.
type RetentionViolation struct {
	Requested time.Duration
	Minimum   time.Duration
}

func (e *RetentionViolation) Error() string {
	return fmt.Sprintf("delta: retention period %s is shorter than the table minimum %s", e.Requested, e.Minimum)
}
