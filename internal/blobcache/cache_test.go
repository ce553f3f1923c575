package blobcache

import (
	"os"
	"testing"

	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/chunk"
	rtest "github.com/restic/vaultcheck/internal/test"
)

func newTestCache(t testing.TB) *Cache {
	dir := t.TempDir()
	return New(dir)
}

func randomDescriptor(t testing.TB, length int64) blob.Descriptor {
	id := chunk.NewRandomID()
	var bid blob.ID
	copy(bid[:], id[:])
	return blob.Descriptor{ID: bid, Length: length, UncompressedLength: length * 2}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	c := newTestCache(t)

	written := make(map[chunk.ID]blob.Descriptor)
	allowed := Allowed{}
	for i := 0; i < 20; i++ {
		id := chunk.NewRandomID()
		d := randomDescriptor(t, int64(100+i))
		rtest.OK(t, c.SaveNewBlob(id, d))
		written[id] = d
		allowed[d.ID] = d.Length
	}

	got, err := c.Load(allowed)
	rtest.OK(t, err)
	rtest.Equals(t, len(written), len(got))
	for id, want := range written {
		rtest.Equals(t, want, got[id])
	}
}

func TestLoadIdempotent(t *testing.T) {
	c := newTestCache(t)

	allowed := Allowed{}
	for i := 0; i < 10; i++ {
		id := chunk.NewRandomID()
		d := randomDescriptor(t, int64(50+i))
		rtest.OK(t, c.SaveNewBlob(id, d))
		allowed[d.ID] = d.Length
	}

	first, err := c.Load(allowed)
	rtest.OK(t, err)
	second, err := c.Load(allowed)
	rtest.OK(t, err)
	rtest.Equals(t, first, second)
}

func TestLoadFiltersMissingFromAllowed(t *testing.T) {
	c := newTestCache(t)

	id := chunk.NewRandomID()
	d := randomDescriptor(t, 100)
	rtest.OK(t, c.SaveNewBlob(id, d))

	got, err := c.Load(Allowed{})
	rtest.OK(t, err)
	rtest.Equals(t, 0, len(got))
}

func TestLoadFiltersSizeMismatch(t *testing.T) {
	c := newTestCache(t)

	id := chunk.NewRandomID()
	d := randomDescriptor(t, 100)
	rtest.OK(t, c.SaveNewBlob(id, d))

	got, err := c.Load(Allowed{d.ID: 99})
	rtest.OK(t, err)
	if _, ok := got[id]; ok {
		t.Fatalf("expected %v to be filtered out by size mismatch", id)
	}
}

func TestLoadToleratesTruncatedFinalRecord(t *testing.T) {
	c := newTestCache(t)

	id1 := chunk.NewRandomID()
	d1 := randomDescriptor(t, 10)
	rtest.OK(t, c.SaveNewBlob(id1, d1))

	id2 := chunk.NewRandomID()
	d2 := randomDescriptor(t, 20)
	rtest.OK(t, c.SaveNewBlob(id2, d2))

	// Truncate the file mid-way through the second record.
	info, err := os.Stat(c.logPath())
	rtest.OK(t, err)
	rtest.OK(t, os.Truncate(c.logPath(), info.Size()-3))

	allowed := Allowed{d1.ID: d1.Length, d2.ID: d2.Length}
	got, err := c.Load(allowed)
	rtest.OK(t, err)
	rtest.Equals(t, 1, len(got))
	rtest.Equals(t, d1, got[id1])
}

func TestClearLocalCache(t *testing.T) {
	c := newTestCache(t)

	id := chunk.NewRandomID()
	d := randomDescriptor(t, 10)
	rtest.OK(t, c.SaveNewBlob(id, d))

	rtest.OK(t, c.ClearLocalCache())

	got, err := c.Load(Allowed{d.ID: d.Length})
	rtest.OK(t, err)
	rtest.Equals(t, 0, len(got))

	// Clearing an already-absent cache is not an error.
	rtest.OK(t, c.ClearLocalCache())
}

func TestQuarantinePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	b1 := randomDescriptor(t, 10).ID
	b2 := randomDescriptor(t, 20).ID

	rtest.OK(t, c.DoNotUseBlob(b1))
	rtest.OK(t, c.DoNotUseBlob(b2))

	// Simulate a restart with a fresh Cache value over the same directory.
	restarted := New(dir)
	q, err := restarted.GetQuarantine()
	rtest.OK(t, err)
	rtest.Equals(t, map[string]struct{}{b1.String(): {}, b2.String(): {}}, q)

	rtest.OK(t, restarted.OnBlobsRemoved(map[string]struct{}{b1.String(): {}, "foo": {}}))

	q, err = restarted.GetQuarantine()
	rtest.OK(t, err)
	rtest.Equals(t, map[string]struct{}{b2.String(): {}}, q)
}

func TestQuarantineMissingFileIsEmpty(t *testing.T) {
	c := newTestCache(t)

	q, err := c.GetQuarantine()
	rtest.OK(t, err)
	rtest.Equals(t, 0, len(q))

	// Removing from an absent quarantine file is a no-op, not an error.
	rtest.OK(t, c.OnBlobsRemoved(map[string]struct{}{"foo": {}}))
}

func TestQuarantineCorruptLengthIsDiscarded(t *testing.T) {
	c := newTestCache(t)

	b1 := randomDescriptor(t, 10).ID
	rtest.OK(t, c.DoNotUseBlob(b1))

	// Append a partial, non-32-byte trailer to make the file length not a
	// multiple of 32.
	f, err := os.OpenFile(c.quarantinePath(), os.O_APPEND|os.O_WRONLY, 0600)
	rtest.OK(t, err)
	_, err = f.Write([]byte{1, 2, 3})
	rtest.OK(t, err)
	rtest.OK(t, f.Close())

	// The id read in full before the partial trailer is still returned;
	// the corrupt file itself is deleted.
	q, err := c.GetQuarantine()
	rtest.OK(t, err)
	rtest.Equals(t, map[string]struct{}{b1.String(): {}}, q)

	if _, err := os.Stat(c.quarantinePath()); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt quarantine file to be deleted")
	}
}
