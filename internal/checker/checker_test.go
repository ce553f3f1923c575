package checker

import (
	"context"
	"crypto/sha256"

	"testing"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/backend/mem"
	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/blobcache"
	"github.com/restic/vaultcheck/internal/chunk"
	"github.com/restic/vaultcheck/internal/manifest"
	rtest "github.com/restic/vaultcheck/internal/test"
)

// contentBlob stores data under a blob.ID whose chunk hash is
// sha256(data), so verification succeeds iff data is untouched.
func contentBlob(t testing.TB, be *mem.Backend, data []byte) (chunk.ID, blob.ID) {
	t.Helper()

	sum := sha256.Sum256(data)
	var chunkID chunk.ID
	copy(chunkID[:], sum[:])

	bid := chunk.NewRandomID()
	var blobID blob.ID
	copy(blobID[:], bid[:])

	be.Put(backend.BlobFile, blobID.String(), data)

	return chunkID, blobID
}

func staticLoader(snapshots []manifest.Snapshot) SnapshotLoader {
	return func(ctx context.Context, handles []backend.Entry) ([]manifest.Snapshot, error) {
		return snapshots, nil
	}
}

func putSnapshotHandle(be *mem.Backend, name string) {
	be.Put(backend.SnapshotFile, name, []byte(name))
}

// TestEmptyRepositoryIsError checks that a repository with no snapshot
// handles at all is reported as Error, not Success.
func TestEmptyRepositoryIsError(t *testing.T) {
	be := mem.New(false)
	cache := blobcache.New(t.TempDir())
	c := New(be, cache, staticLoader(nil), nil)

	rtest.OK(t, c.Check(context.Background(), 100))

	res := c.Result()
	rtest.Equals(t, Error, res.Kind)
	rtest.Equals(t, 0, res.ExistingSnapshots)
	rtest.Equals(t, 0, len(res.Snapshots))
	rtest.Equals(t, 0, len(res.BadPairs))
}

// TestTwoSnapshotsAllCorrect checks the happy path: every blob hashes
// correctly, so the run finishes as Success.
func TestTwoSnapshotsAllCorrect(t *testing.T) {
	be := mem.New(false)
	cache := blobcache.New(t.TempDir())

	id1, b1 := contentBlob(t, be, make([]byte, 10))
	id2, b2 := contentBlob(t, be, make([]byte, 20))

	d1 := blob.Descriptor{ID: b1, Length: 10}
	d2 := blob.Descriptor{ID: b2, Length: 20}

	s1 := manifest.Snapshot{
		Token:    1,
		BlobsMap: map[chunk.ID]blob.Descriptor{id1: d1, id2: d2},
		AppsMap: map[string]manifest.AppEntry{
			"app": {Name: "app", Data: []chunk.ID{id1, id2}},
		},
	}
	s2 := s1
	s2.Token = 2

	putSnapshotHandle(be, "s1")
	putSnapshotHandle(be, "s2")

	c := New(be, cache, staticLoader([]manifest.Snapshot{s1, s2}), nil)
	rtest.OK(t, c.Check(context.Background(), 100))

	res := c.Result()
	rtest.Equals(t, Success, res.Kind)
	rtest.Equals(t, 2, res.ExistingSnapshots)
	rtest.Equals(t, int64(30), res.BytesChecked)
}

// TestOneSnapshotBlobCorrupt checks that a single corrupted blob fails
// the run, quarantines that blob, and only taints the snapshot that
// references it.
func TestOneSnapshotBlobCorrupt(t *testing.T) {
	be := mem.New(false)
	cache := blobcache.New(t.TempDir())

	id1, b1 := contentBlob(t, be, make([]byte, 10))
	id2, b2 := contentBlob(t, be, make([]byte, 20))
	be.Corrupt(backend.BlobFile, b2.String())

	d1 := blob.Descriptor{ID: b1, Length: 10}
	d2 := blob.Descriptor{ID: b2, Length: 20}

	s1 := manifest.Snapshot{
		Token:    1,
		BlobsMap: map[chunk.ID]blob.Descriptor{id1: d1},
		AppsMap: map[string]manifest.AppEntry{
			"app": {Name: "app", Data: []chunk.ID{id1}},
		},
	}
	s2 := manifest.Snapshot{
		Token:    2,
		BlobsMap: map[chunk.ID]blob.Descriptor{id2: d2},
		AppsMap: map[string]manifest.AppEntry{
			"app": {Name: "app", Data: []chunk.ID{id2}},
		},
	}

	putSnapshotHandle(be, "s1")
	putSnapshotHandle(be, "s2")

	c := New(be, cache, staticLoader([]manifest.Snapshot{s1, s2}), nil)
	rtest.OK(t, c.Check(context.Background(), 100))

	res := c.Result()
	rtest.Equals(t, Error, res.Kind)
	rtest.Equals(t, 2, res.ExistingSnapshots)
	rtest.Equals(t, []manifest.Pair{{ChunkID: id2, Blob: d2}}, res.BadPairs)

	good, bad := res.GoodSnapshots(), res.BadSnapshots()
	rtest.Equals(t, 1, len(good))
	rtest.Equals(t, int64(1), good[0].Token)
	rtest.Equals(t, 1, len(bad))
	rtest.Equals(t, int64(2), bad[0].Token)

	q, err := cache.GetQuarantine()
	rtest.OK(t, err)
	rtest.Equals(t, map[string]struct{}{b2.String(): {}}, q)
}

// TestTransientBackendErrorDoesNotQuarantine checks that a plain I/O
// failure (as opposed to a hash mismatch) never quarantines the blob.
func TestTransientBackendErrorDoesNotQuarantine(t *testing.T) {
	be := mem.New(false)
	cache := blobcache.New(t.TempDir())

	id1, b1 := contentBlob(t, be, make([]byte, 10))

	// missing/d2 is referenced by the snapshot but never stored: Load
	// will fail with a plain not-found error, not a hash mismatch.
	missing := chunk.NewRandomID()
	b2 := blob.ID(chunk.NewRandomID())
	d2 := blob.Descriptor{ID: b2, Length: 20}

	d1 := blob.Descriptor{ID: b1, Length: 10}

	s1 := manifest.Snapshot{
		Token:    1,
		BlobsMap: map[chunk.ID]blob.Descriptor{id1: d1, missing: d2},
		AppsMap: map[string]manifest.AppEntry{
			"app": {Name: "app", Data: []chunk.ID{id1, missing}},
		},
	}

	putSnapshotHandle(be, "s1")

	c := New(be, cache, staticLoader([]manifest.Snapshot{s1}), nil)
	rtest.OK(t, c.Check(context.Background(), 100))

	res := c.Result()
	rtest.Equals(t, Error, res.Kind)
	rtest.Equals(t, []manifest.Pair{{ChunkID: missing, Blob: d2}}, res.BadPairs)

	q, err := cache.GetQuarantine()
	rtest.OK(t, err)
	rtest.Equals(t, 0, len(q))
}

func TestCheckRejectsOutOfRangePercent(t *testing.T) {
	be := mem.New(false)
	cache := blobcache.New(t.TempDir())
	c := New(be, cache, staticLoader(nil), nil)

	err := c.Check(context.Background(), 101)
	rtest.Assert(t, err != nil, "expected error for percent > 100")
	rtest.Equals(t, Idle, c.State())
}

func TestClearResetsToIdle(t *testing.T) {
	be := mem.New(false)
	cache := blobcache.New(t.TempDir())
	c := New(be, cache, staticLoader(nil), nil)

	rtest.OK(t, c.Check(context.Background(), 100))
	rtest.Assert(t, c.Result() != nil, "expected a result after Check")

	c.Clear()
	rtest.Equals(t, Idle, c.State())
	rtest.Assert(t, c.Result() == nil, "expected Clear to discard the result")
}
