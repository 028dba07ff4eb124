package source

import (
	"context"

	"github.com/txn2/timepath/pkg/storage"
)

// SuccessMarker is the reserved filename signaling that all writes to a
// partition have finished.
const SuccessMarker = "_SUCCESS"

// Validator decides whether a single partition path is usable. Each call
// issues one listing against the backend; nothing is cached, so repeated
// validation re-queries current filesystem state.
type Validator interface {
	Good(ctx context.Context, path string) (bool, error)
}

// ExistenceValidator accepts any path that resolves to at least one entry.
type ExistenceValidator struct {
	Lister storage.Lister
}

// Good reports whether the path resolves to anything.
func (v ExistenceValidator) Good(ctx context.Context, path string) (bool, error) {
	entries, err := v.Lister.List(ctx, path)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// MarkerValidator requires the partition to exist and to carry an explicit
// completion marker, for sources that must not trust partial output.
type MarkerValidator struct {
	Lister storage.Lister

	// Marker overrides the reserved marker filename. Empty means
	// SuccessMarker.
	Marker string
}

// Good reports whether the path resolves to entries including the
// completion marker.
func (v MarkerValidator) Good(ctx context.Context, path string) (bool, error) {
	entries, err := v.Lister.List(ctx, path)
	if err != nil {
		return false, err
	}

	marker := v.Marker
	if marker == "" {
		marker = SuccessMarker
	}
	for _, e := range entries {
		if e.Name == marker {
			return true, nil
		}
	}
	return false, nil
}

// Verify interface compliance.
var (
	_ Validator = ExistenceValidator{}
	_ Validator = MarkerValidator{}
)
