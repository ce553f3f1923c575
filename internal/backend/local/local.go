// Package local implements a backend.Backend over a plain local
// directory, laid out as two subdirectories, one per FileType. It never
// requires network access, which feeds directly into the verifier's
// concurrency bound.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/debug"
	"github.com/restic/vaultcheck/internal/errors"
)

// Local is a backend.Backend rooted at a directory on disk.
type Local struct {
	path string
}

var _ backend.Backend = &Local{}

// Open returns a Local backend rooted at path, creating the per-type
// subdirectories if they don't already exist.
func Open(path string) (*Local, error) {
	l := &Local{path: path}
	for _, t := range []backend.FileType{backend.BlobFile, backend.SnapshotFile} {
		if err := os.MkdirAll(l.dir(t), 0700); err != nil {
			return nil, errors.Wrap(err, "MkdirAll")
		}
	}
	return l, nil
}

func (l *Local) dir(t backend.FileType) string {
	switch t {
	case backend.BlobFile:
		return filepath.Join(l.path, "blobs")
	case backend.SnapshotFile:
		return filepath.Join(l.path, "snapshots")
	default:
		return filepath.Join(l.path, t.String())
	}
}

func (l *Local) filename(t backend.FileType, name string) string {
	return filepath.Join(l.dir(t), name)
}

// RequiresNetwork always returns false: a local directory is, by
// definition, not a network resource.
func (l *Local) RequiresNetwork() bool {
	return false
}

// IsNotExist returns true if err was caused by a missing file.
func (l *Local) IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// List calls fn once for every file stored under t, in filename order.
func (l *Local) List(ctx context.Context, t backend.FileType, fn func(backend.Entry) error) error {
	entries, err := os.ReadDir(l.dir(t))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "ReadDir")
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.IsDir() {
			continue
		}

		info, err := e.Info()
		if err != nil {
			debug.Log("local: skipping %v, Info failed: %v", e.Name(), err)
			continue
		}

		if err := fn(backend.Entry{Name: e.Name(), Size: info.Size()}); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Load opens the file identified by (t, name) and streams it to fn.
func (l *Local) Load(ctx context.Context, t backend.FileType, name string, fn func(rd io.Reader) error) error {
	f, err := os.Open(l.filename(t, name))
	if err != nil {
		return errors.Wrap(err, "Open")
	}
	defer f.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return fn(f)
}

// Save writes data to the file identified by (t, name), replacing any
// previous content. Save is not part of backend.Backend: the core only
// ever reads and removes; it exists so tests can seed a Local backend.
func (l *Local) Save(t backend.FileType, name string, data []byte) error {
	tmp := l.filename(t, name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(err, "WriteFile")
	}
	return os.Rename(tmp, l.filename(t, name))
}

// Remove deletes the file identified by (t, name).
func (l *Local) Remove(ctx context.Context, t backend.FileType, name string) error {
	if err := os.Remove(l.filename(t, name)); err != nil {
		return errors.Wrap(err, "Remove")
	}
	return ctx.Err()
}
