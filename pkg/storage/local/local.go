// Package local provides a local-filesystem implementation of the storage
// lister.
package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/txn2/timepath/pkg/storage"
)

// Lister lists local filesystem entries. An optional root scopes relative
// partition paths; absolute paths are used as-is.
type Lister struct {
	root string
}

// New creates a local lister. An empty root resolves paths against the
// process working directory.
func New(root string) *Lister {
	return &Lister{root: root}
}

// Name returns the backend name.
func (*Lister) Name() string {
	return "local"
}

// List resolves a partition path against the local filesystem. A trailing
// "/*" lists the directory; otherwise the path is checked as a single entry.
// Missing paths resolve to an empty slice.
func (l *Lister) List(_ context.Context, path string) ([]storage.Entry, error) {
	target := path
	if l.root != "" && !filepath.IsAbs(path) {
		target = filepath.Join(l.root, path)
	}

	if strings.HasSuffix(target, "/*") {
		return l.listDir(strings.TrimSuffix(target, "/*"))
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return []storage.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	mod := info.ModTime()
	return []storage.Entry{{
		Name:         filepath.Base(target),
		Size:         info.Size(),
		LastModified: &mod,
	}}, nil
}

func (l *Lister) listDir(dir string) ([]storage.Entry, error) {
	dirents, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []storage.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries := make([]storage.Entry, 0, len(dirents))
	for _, d := range dirents {
		entry := storage.Entry{Name: d.Name()}
		if info, err := d.Info(); err == nil {
			entry.Size = info.Size()
			mod := info.ModTime()
			entry.LastModified = &mod
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close is a no-op for the local filesystem.
func (*Lister) Close() error {
	return nil
}

// Verify interface compliance.
var _ storage.Lister = (*Lister)(nil)
