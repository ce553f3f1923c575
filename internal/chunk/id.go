// Package chunk defines the content-addressed identifier for plaintext
// chunks produced by the (out of scope) rolling-hash chunker.
package chunk

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/restic/vaultcheck/internal/errors"
)

// Length is the size in bytes of an ID.
const Length = 32

// ID is the hash of a plaintext chunk, computed by a fixed hash function
// whose choice is outside the scope of this package.
type ID [Length]byte

// Null is the zero ID.
var Null ID

// IsNull returns true if id is the zero value.
func (id ID) IsNull() bool {
	return id == Null
}

// String returns the lowercase hex representation of id.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Str returns a short prefix of the hex representation, for log messages.
func (id ID) Str() string {
	if id.IsNull() {
		return "[null]"
	}
	s := id.String()
	return s[:8]
}

// ParseID parses a lowercase hex string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, errors.Wrap(err, "hex.DecodeString")
	}
	if len(b) != Length {
		return id, errors.Errorf("invalid length for ID: %d bytes", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// NewRandomID returns a new random ID, for tests and benchmarks.
func NewRandomID() ID {
	var id ID
	_, err := rand.Read(id[:])
	if err != nil {
		panic(errors.Wrap(err, "rand.Read"))
	}
	return id
}
