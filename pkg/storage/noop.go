package storage

import "context"

// NoopLister is a no-op implementation for testing. Every path resolves to
// nothing.
type NoopLister struct{}

// NewNoopLister creates a new no-op lister.
func NewNoopLister() *NoopLister {
	return &NoopLister{}
}

// Name returns the backend name.
func (*NoopLister) Name() string {
	return "noop"
}

// List returns empty for no-op.
func (*NoopLister) List(_ context.Context, _ string) ([]Entry, error) {
	return []Entry{}, nil
}

// Close is a no-op.
func (*NoopLister) Close() error {
	return nil
}

// Verify interface compliance.
var _ Lister = (*NoopLister)(nil)
