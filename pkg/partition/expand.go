package partition

import (
	"strings"
	"time"
)

// Step is one expanded partition: the rendered path and the instant that
// owns it. Steps are ordered chronologically.
type Step struct {
	Path    string
	Instant time.Time
}

// Expand enumerates the partitions a template covers across a range at the
// template's finest unit granularity. The first step is exactly the range
// start; each subsequent step adds one unit; the last step is the final one
// at or before the range end, so a zero-length range yields exactly one step.
// Results are derived fresh on every call; nothing is cached.
func Expand(tmpl Template, r Range, loc *time.Location) ([]Step, error) {
	unit, err := tmpl.Unit()
	if err != nil {
		return nil, err
	}

	var steps []Step
	for t := r.Start.In(loc); !t.After(r.End); t = unit.Step(t) {
		steps = append(steps, Step{Path: tmpl.Render(t, loc), Instant: t})
	}
	return steps, nil
}

// WritePath resolves the single partition owned by the range end. Data is
// always written to the end partition, never to an enumeration of everything
// the range covers. A trailing read wildcard is stripped; templates without
// one are permitted for writing.
func WritePath(tmpl Template, r Range, loc *time.Location) (string, error) {
	if _, err := tmpl.Unit(); err != nil {
		return "", err
	}
	path := tmpl.Render(r.End, loc)
	return strings.TrimSuffix(path, ReadWildcard), nil
}
