// Package index implements the in-memory ChunkId -> BlobDescriptor
// mapping that serves lookups during a backup run. It is rebuilt from
// the persistent blob cache, the current snapshot set and a fresh
// backend listing before every run, then discarded at the end.
package index

import (
	"sync"

	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/blobcache"
	"github.com/restic/vaultcheck/internal/chunk"
	"github.com/restic/vaultcheck/internal/debug"
	"github.com/restic/vaultcheck/internal/manifest"
)

// Index is a write-once-per-chunk mapping populated at the start of a
// backup run. It is safe for concurrent use.
type Index struct {
	mu    sync.Mutex
	m     map[chunk.ID]blob.Descriptor
	cache *blobcache.Cache
}

// New returns an empty Index backed by cache. SaveNewBlob persists
// through cache; Populate reads from it.
func New(cache *blobcache.Cache) *Index {
	return &Index{
		m:     make(map[chunk.ID]blob.Descriptor),
		cache: cache,
	}
}

// Populate discards the current contents and rebuilds the index from
// the persistent cache, then from snapshots in order, both filtered
// against backendBlobs minus the quarantine.
//
// Blobs present in the persistent cache or referenced by a snapshot but
// absent from backendBlobs, or present with a different size, are
// dropped with a warning rather than an error: a stale cache entry or a
// partially-pruned snapshot is expected, not exceptional.
func (ix *Index) Populate(backendBlobs []blob.Info, snapshots []manifest.Snapshot) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.m = make(map[chunk.ID]blob.Descriptor)

	allowed := make(blobcache.Allowed, len(backendBlobs))
	for _, info := range backendBlobs {
		allowed[info.ID] = info.Size
	}

	quarantine, err := ix.cache.GetQuarantine()
	if err != nil {
		return err
	}
	for id := range allowed {
		if _, bad := quarantine[id.String()]; bad {
			delete(allowed, id)
		}
	}

	cached, err := ix.cache.Load(allowed)
	if err != nil {
		return err
	}
	for id, b := range cached {
		ix.m[id] = b
	}

	for _, snap := range snapshots {
		for id, b := range snap.BlobsMap {
			size, ok := allowed[b.ID]
			if !ok || size != b.Length {
				debug.Log("index: snapshot %v references unavailable blob %v for chunk %v", snap.Token, b.ID, id.Str())
				continue
			}

			existing, present := ix.m[id]
			if present {
				if existing.ID != b.ID {
					debug.Log("index: chunk %v already mapped to %v, keeping over %v", id.Str(), existing.ID, b.ID)
				}
				continue
			}

			ix.m[id] = b
		}
	}

	return nil
}

// Get returns the descriptor stored for id, if any.
func (ix *Index) Get(id chunk.ID) (blob.Descriptor, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	b, ok := ix.m[id]
	return b, ok
}

// ContainsAll reports whether every id in ids is present in the index.
func (ix *Index) ContainsAll(ids []chunk.ID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, id := range ids {
		if _, ok := ix.m[id]; !ok {
			return false
		}
	}
	return true
}

// SaveNewBlob inserts (id, b) if id is absent, and in that case also
// appends the record to the persistent cache. If id is already present,
// the index and the persistent cache are left unchanged.
func (ix *Index) SaveNewBlob(id chunk.ID, b blob.Descriptor) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, present := ix.m[id]; present {
		return nil
	}

	if err := ix.cache.SaveNewBlob(id, b); err != nil {
		return err
	}

	ix.m[id] = b
	return nil
}

// Len returns the number of chunks currently tracked. Mostly useful in
// tests and logging.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return len(ix.m)
}
