// Package manifest defines the logical backup manifest (Snapshot) and the
// application/package-artifact structures it references.
package manifest

import (
	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/chunk"
)

// Split is one piece of an installable-package artifact (e.g. an Android
// APK split), carrying its own ordered chunk list.
type Split struct {
	Name   string
	Chunks []chunk.ID
}

// PackageArtifact is the installable-package artifact nested inside an
// application's backup entry.
type PackageArtifact struct {
	Splits []Split
}

// AppEntry is one application's backup state within a Snapshot: an
// ordered data stream plus its package artifact.
type AppEntry struct {
	Name    string
	Data    []chunk.ID
	Package PackageArtifact
}

// Snapshot is a logical backup manifest.
type Snapshot struct {
	// Token is the monotonic creation time / identifier of this snapshot.
	Token int64

	// BlobsMap is the sole authoritative source of the Descriptor to use
	// when verifying a given ChunkId within this snapshot.
	BlobsMap map[chunk.ID]blob.Descriptor

	// AppsMap holds, for each application, its data chunks and package
	// artifact.
	AppsMap map[string]AppEntry
}

// Blob looks up the descriptor this snapshot associates with id. The
// zero value and false are returned if the snapshot does not reference id.
func (s *Snapshot) Blob(id chunk.ID) (blob.Descriptor, bool) {
	d, ok := s.BlobsMap[id]
	return d, ok
}

// Pair is a (ChunkId, Descriptor) tuple. Two pairs sharing a ChunkId but
// carrying different Descriptors are distinct for every purpose in this
// module: sampling, verification and verdict classification all operate
// on pairs, never on bare ChunkIds.
type Pair struct {
	ChunkID chunk.ID
	Blob    blob.Descriptor
}
