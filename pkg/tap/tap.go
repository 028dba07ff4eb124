// Package tap provides logical access handles over resolved partition paths.
//
// A tap is how the execution engine addresses a physical location. The
// resolver never interprets record content; it only threads validated paths
// into taps and lets the engine-supplied Opener produce the actual reader or
// writer.
package tap

import (
	"context"
	"fmt"
	"io"
)

// Scheme identifies a record encoding understood by the execution engine.
// Orthogonal to path resolution.
type Scheme struct {
	Name      string
	Delimiter string
}

// Common schemes.
var (
	TextLine = Scheme{Name: "textline"}
	TSV      = Scheme{Name: "tsv", Delimiter: "\t"}
	CSV      = Scheme{Name: "csv", Delimiter: ","}
)

// Opener produces read and write handles for physical paths. Supplied by the
// execution engine; distributed and local implementations carry identical
// semantics.
type Opener interface {
	OpenRead(ctx context.Context, path string, scheme Scheme) (io.ReadCloser, error)
	OpenWrite(ctx context.Context, path string, scheme Scheme) (io.WriteCloser, error)
}

// Tap is a logical read handle over one or more physical partition paths.
type Tap interface {
	// Identifier returns the stable identity the execution engine uses to
	// address this tap.
	Identifier() string

	// Paths returns the physical paths in chronological order.
	Paths() []string

	// Open returns a reader over the tap's records.
	Open(ctx context.Context, opener Opener) (io.ReadCloser, error)
}

// pathTap reads a single physical location.
type pathTap struct {
	path   string
	scheme Scheme
}

// NewPath returns a tap for a single physical path. Its identity is the path
// itself.
func NewPath(path string, scheme Scheme) Tap {
	return &pathTap{path: path, scheme: scheme}
}

func (t *pathTap) Identifier() string {
	return t.path
}

func (t *pathTap) Paths() []string {
	return []string{t.path}
}

func (t *pathTap) Open(ctx context.Context, opener Opener) (io.ReadCloser, error) {
	return opener.OpenRead(ctx, t.path, t.scheme)
}

// placeholderTap stands in for a source with no usable partitions. It exists
// so handle construction never fails before the validation pass runs; opening
// it always fails.
type placeholderTap struct {
	path string
}

// NewPlaceholder returns a tap referencing the first originally requested
// path of a source that resolved to nothing. The validation pass is
// guaranteed to surface the real failure before any read is attempted.
func NewPlaceholder(path string) Tap {
	return &placeholderTap{path: path}
}

func (t *placeholderTap) Identifier() string {
	return t.path
}

func (t *placeholderTap) Paths() []string {
	return nil
}

func (t *placeholderTap) Open(_ context.Context, _ Opener) (io.ReadCloser, error) {
	return nil, fmt.Errorf("no usable partitions behind %s: source must be validated before reading", t.path)
}
