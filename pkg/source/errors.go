package source

import (
	"fmt"
	"strings"

	"github.com/txn2/timepath/pkg/partition"
)

// Failure kind names used in audit events and logs.
const (
	FailureTemplate             = "template_error"
	FailureIncompletePartitions = "incomplete_partitions"
	FailureNoUsablePartitions   = "no_usable_partitions"
)

// IncompletePartitionsError reports that one or more expected partitions are
// missing or incomplete under StrictAll. It carries the full bad-path list
// for operator diagnosis.
type IncompletePartitionsError struct {
	Template string
	Range    partition.Range
	Timezone string
	Bad      []string
}

// Error implements the error interface.
func (e *IncompletePartitionsError) Error() string {
	return fmt.Sprintf("source %s over %s (%s): %d incomplete partitions: %s",
		e.Template, e.Range, e.Timezone, len(e.Bad), strings.Join(e.Bad, ", "))
}

// NoUsablePartitionsError reports that zero usable partitions were found
// anywhere in the range under LenientAny or MostRecentGood.
type NoUsablePartitionsError struct {
	Template string
	Range    partition.Range
	Timezone string
}

// Error implements the error interface.
func (e *NoUsablePartitionsError) Error() string {
	return fmt.Sprintf("source %s over %s (%s): no usable partitions",
		e.Template, e.Range, e.Timezone)
}

// failureKind maps an error to its audit failure kind name.
func failureKind(err error) string {
	if err == nil {
		return ""
	}
	switch err.(type) {
	case *partition.TemplateError:
		return FailureTemplate
	case *IncompletePartitionsError:
		return FailureIncompletePartitions
	case *NoUsablePartitionsError:
		return FailureNoUsablePartitions
	}
	return "backend_error"
}
