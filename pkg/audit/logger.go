// Package audit records the outcomes of source resolution and validation.
package audit

import (
	"context"
	"time"
)

// Logger defines the interface for resolution audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves audit events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Event represents one resolution or validation outcome.
type Event struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	DurationMS     int64     `json:"duration_ms"`
	Operation      string    `json:"operation"`
	Template       string    `json:"template"`
	RangeStart     time.Time `json:"range_start"`
	RangeEnd       time.Time `json:"range_end"`
	Timezone       string    `json:"timezone"`
	Policy         string    `json:"policy"`
	Backend        string    `json:"backend,omitempty"`
	CandidateCount int       `json:"candidate_count"`
	GoodCount      int       `json:"good_count"`
	Success        bool      `json:"success"`
	FailureKind    string    `json:"failure_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime   *time.Time
	EndTime     *time.Time
	Template    string
	Policy      string
	FailureKind string
	Success     *bool
	Limit       int
	Offset      int
}

// NoopLogger discards events. Used when no audit store is configured.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// Log discards the event.
func (*NoopLogger) Log(_ context.Context, _ Event) error {
	return nil
}

// Query returns empty for no-op.
func (*NoopLogger) Query(_ context.Context, _ QueryFilter) ([]Event, error) {
	return []Event{}, nil
}

// Close is a no-op.
func (*NoopLogger) Close() error {
	return nil
}

// Verify interface compliance.
var _ Logger = (*NoopLogger)(nil)
