// Package blob defines the records the core exchanges with the backend
// and persists inside snapshots: the encrypted, backend-stored object
// behind a ChunkId.
package blob

import (
	"encoding/hex"

	"github.com/restic/vaultcheck/internal/errors"
)

// Length is the size in bytes of a backend blob ID.
const Length = 32

// ID is the 32-byte backend identifier of a stored, encrypted blob.
type ID [Length]byte

// String returns the lowercase hex representation of id.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a lowercase hex string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, errors.Wrap(err, "hex.DecodeString")
	}
	if len(b) != Length {
		return id, errors.Errorf("invalid length for blob ID: %d bytes", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Descriptor is the record stored inside a snapshot describing one stored
// blob. Length and UncompressedLength are intentionally int64: backend
// listings expose 64-bit sizes, and truncating to 32 bits would make
// blobs of 2 GiB or larger unrepresentable (see DESIGN.md, Open Questions).
type Descriptor struct {
	ID                 ID
	Length             int64
	UncompressedLength int64
}

// Info is a remote listing entry as reported by the backend's directory
// listing: an ID paired with its on-backend size.
type Info struct {
	ID   ID
	Size int64
}
