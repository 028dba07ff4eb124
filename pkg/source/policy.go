// Package source resolves time-partitioned path templates into validated
// access handles.
package source

import "fmt"

// Policy selects which validated partitions a source accepts.
type Policy int

const (
	// StrictAll requires every partition in the range to be good.
	StrictAll Policy = iota

	// LenientAny keeps the good partitions and silently drops the rest;
	// at least one partition must be good.
	LenientAny

	// MostRecentGood uses only the chronologically last good partition.
	MostRecentGood
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case StrictAll:
		return "strict_all"
	case LenientAny:
		return "lenient_any"
	case MostRecentGood:
		return "most_recent_good"
	}
	return "unknown"
}

// ParsePolicy parses a policy name as it appears in configuration.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "strict_all":
		return StrictAll, nil
	case "lenient_any":
		return LenientAny, nil
	case "most_recent_good":
		return MostRecentGood, nil
	}
	return 0, fmt.Errorf("unknown source policy %q", s)
}
