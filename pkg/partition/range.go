package partition

import (
	"fmt"
	"time"
)

// Range is an inclusive span of time. Immutable once constructed.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange constructs a range, rejecting end before start.
func NewRange(start, end time.Time) (Range, error) {
	if end.Before(start) {
		return Range{}, fmt.Errorf("range end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Range{Start: start, End: end}, nil
}

// String returns a compact representation for error messages and logs.
func (r Range) String() string {
	return r.Start.Format(time.RFC3339) + ".." + r.End.Format(time.RFC3339)
}
