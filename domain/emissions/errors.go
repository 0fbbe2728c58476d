package emissions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDataset is returned when no usable record remains after normalization.
var ErrEmptyDataset = errors.New("empty dataset: no usable records")

// ValidationError reports a malformed source table or request parameter.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("validation: missing columns %s", strings.Join(e.Missing, ", "))
	}
	return "validation: " + e.Reason
}

// ComputationError wraps a numeric failure while aggregating one year.
type ComputationError struct {
	Year int
	Op   string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation %s (year %d): %v", e.Op, e.Year, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
