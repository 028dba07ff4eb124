package audit

import (
	"time"

	"github.com/google/uuid"
)

// Operation names recorded on events.
const (
	OperationResolveRead  = "resolve_read"
	OperationResolveWrite = "resolve_write"
	OperationValidate     = "validate"
)

// NewEvent creates a new audit event for an operation.
func NewEvent(operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Operation: operation,
	}
}

// WithSource records the source under resolution.
func (e *Event) WithSource(template string, rangeStart, rangeEnd time.Time, timezone, policy string) *Event {
	e.Template = template
	e.RangeStart = rangeStart
	e.RangeEnd = rangeEnd
	e.Timezone = timezone
	e.Policy = policy
	return e
}

// WithBackend records the storage backend consulted.
func (e *Event) WithBackend(backend string) *Event {
	e.Backend = backend
	return e
}

// WithCandidates records how many partitions were expanded and how many
// validated as good.
func (e *Event) WithCandidates(total, good int) *Event {
	e.CandidateCount = total
	e.GoodCount = good
	return e
}

// Complete marks the event finished, capturing duration and outcome.
// failureKind is empty on success.
func (e *Event) Complete(failureKind string, err error) *Event {
	e.DurationMS = time.Since(e.Timestamp).Milliseconds()
	e.Success = err == nil
	e.FailureKind = failureKind
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	return e
}
