package storage

import "context"

// Lister resolves a partition path to the filesystem entries it contains.
// Local filesystems and S3 implement this with identical semantics; the
// resolution and validation algorithms never depend on which backend is
// behind it.
type Lister interface {
	// Name returns the backend name.
	Name() string

	// List returns the entries a path resolves to. A path ending in "/*"
	// matches all entries at that level; any other path names a single
	// entry. A path that resolves to nothing returns an empty slice, not
	// an error; backend failures (permission, unavailability) propagate
	// unwrapped.
	List(ctx context.Context, path string) ([]Entry, error)

	// Close releases resources.
	Close() error
}
