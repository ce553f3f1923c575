// Package mem implements an in-memory backend.Backend for tests. It plays
// the same role as restic's internal/backend/mem: nothing more than a map
// guarded by a mutex, with a content hash recorded on write, rather than
// a simulation of a real transport.
package mem

import (
	"bytes"
	"context"
	"hash"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/errors"
)

type key struct {
	t    backend.FileType
	name string
}

type entry struct {
	data     []byte
	checksum uint64
}

var errNotFound = errors.New("not found")

// Backend is a mock backend that stores all data in memory. Use New to
// construct one, then Put to seed it before handing it to code under test.
type Backend struct {
	mu   sync.Mutex
	data map[key]entry

	requiresNetwork bool
}

var _ backend.Backend = &Backend{}

// New returns an empty in-memory backend. requiresNetwork controls the
// value RequiresNetwork reports, which in turn feeds the verifier's
// concurrency bound.
func New(requiresNetwork bool) *Backend {
	return &Backend{
		data:            make(map[key]entry),
		requiresNetwork: requiresNetwork,
	}
}

func hasher() hash.Hash64 {
	return xxhash.New()
}

// Put stores data under (t, name), overwriting any previous content. It
// records an xxhash checksum of data alongside it; the checksum is not
// verified by Load, and a second Put to the same name is not rejected.
func (be *Backend) Put(t backend.FileType, name string, data []byte) {
	be.mu.Lock()
	defer be.mu.Unlock()

	h := hasher()
	_, _ = h.Write(data)

	buf := make([]byte, len(data))
	copy(buf, data)

	be.data[key{t, name}] = entry{data: buf, checksum: h.Sum64()}
}

// Corrupt flips a byte in the stored object, simulating a blob whose
// on-backend content no longer matches the chunk hash it was stored
// under. It is a no-op if name is not present or empty.
func (be *Backend) Corrupt(t backend.FileType, name string) {
	be.mu.Lock()
	defer be.mu.Unlock()

	e, ok := be.data[key{t, name}]
	if !ok || len(e.data) == 0 {
		return
	}
	e.data[0] ^= 0xff
	be.data[key{t, name}] = e
}

// IsNotExist returns true if err was caused by a missing object.
func (be *Backend) IsNotExist(err error) bool {
	return errors.Is(err, errNotFound)
}

// List enumerates every stored handle of type t.
func (be *Backend) List(ctx context.Context, t backend.FileType, fn func(backend.Entry) error) error {
	be.mu.Lock()
	var entries []backend.Entry
	for k, e := range be.data {
		if k.t != t {
			continue
		}
		entries = append(entries, backend.Entry{Name: k.name, Size: int64(len(e.data))})
	}
	be.mu.Unlock()

	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Load streams the stored object identified by (t, name) to fn.
func (be *Backend) Load(ctx context.Context, t backend.FileType, name string, fn func(rd io.Reader) error) error {
	be.mu.Lock()
	e, ok := be.data[key{t, name}]
	be.mu.Unlock()

	if !ok {
		return errNotFound
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return fn(bytes.NewReader(e.data))
}

// Remove deletes the object identified by (t, name).
func (be *Backend) Remove(ctx context.Context, t backend.FileType, name string) error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if _, ok := be.data[key{t, name}]; !ok {
		return errNotFound
	}

	delete(be.data, key{t, name})
	return ctx.Err()
}

// RequiresNetwork reports the value passed to New.
func (be *Backend) RequiresNetwork() bool {
	return be.requiresNetwork
}
