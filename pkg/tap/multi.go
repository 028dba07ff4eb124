package tap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"

	"github.com/google/uuid"
)

// IdentityMode selects how a composite tap derives its identifier.
type IdentityMode int

const (
	// RandomIdentity generates a fresh identifier per construction. Two
	// aggregations of the same paths get distinct identities, which keeps
	// the engine from caching composites across job runs.
	RandomIdentity IdentityMode = iota

	// DeterministicIdentity hashes the sorted child paths, so the same set
	// of partitions always yields the same identity across runs.
	DeterministicIdentity
)

// multiTap concatenates child taps in chronological order behind a single
// synthetic identity.
type multiTap struct {
	id       string
	children []Tap
}

// NewMulti returns a composite tap over children, which must already be in
// chronological order. The synthetic identity is distinct from any child
// path so the engine treats the composite as one addressable unit.
func NewMulti(children []Tap, mode IdentityMode) Tap {
	return &multiTap{
		id:       syntheticIdentity(children, mode),
		children: children,
	}
}

func syntheticIdentity(children []Tap, mode IdentityMode) string {
	if mode == DeterministicIdentity {
		paths := make([]string, 0, len(children))
		for _, c := range children {
			paths = append(paths, c.Paths()...)
		}
		sort.Strings(paths)
		h := sha256.New()
		for _, p := range paths {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
		return "multi-" + hex.EncodeToString(h.Sum(nil))[:32]
	}
	return "multi-" + uuid.NewString()
}

func (t *multiTap) Identifier() string {
	return t.id
}

func (t *multiTap) Paths() []string {
	var paths []string
	for _, c := range t.children {
		paths = append(paths, c.Paths()...)
	}
	return paths
}

// Open concatenates the children's readers in chronological order. Children
// are opened lazily as the preceding one is exhausted.
func (t *multiTap) Open(ctx context.Context, opener Opener) (io.ReadCloser, error) {
	return &multiReader{ctx: ctx, opener: opener, remaining: t.children}, nil
}

// multiReader streams children one at a time.
type multiReader struct {
	ctx       context.Context
	opener    Opener
	remaining []Tap
	current   io.ReadCloser
}

func (m *multiReader) Read(p []byte) (int, error) {
	for {
		if m.current == nil {
			if len(m.remaining) == 0 {
				return 0, io.EOF
			}
			rc, err := m.remaining[0].Open(m.ctx, m.opener)
			if err != nil {
				return 0, err
			}
			m.current = rc
			m.remaining = m.remaining[1:]
		}

		n, err := m.current.Read(p)
		if err == io.EOF {
			closeErr := m.current.Close()
			m.current = nil
			if closeErr != nil {
				return n, closeErr
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (m *multiReader) Close() error {
	if m.current != nil {
		err := m.current.Close()
		m.current = nil
		m.remaining = nil
		return err
	}
	m.remaining = nil
	return nil
}

// Aggregate turns validated physical paths into a single logical tap:
// zero paths yield a placeholder on fallback, one path a direct tap, and
// several a composite in the given order.
func Aggregate(paths []string, fallback string, scheme Scheme, mode IdentityMode) Tap {
	switch len(paths) {
	case 0:
		return NewPlaceholder(fallback)
	case 1:
		return NewPath(paths[0], scheme)
	default:
		children := make([]Tap, 0, len(paths))
		for _, p := range paths {
			children = append(children, NewPath(p, scheme))
		}
		return NewMulti(children, mode)
	}
}
