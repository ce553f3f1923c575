// Package backend declares the narrow interface the core consumes from
// the untrusted remote storage. Everything about how objects actually get
// to and from the wire (HTTP, S3, SFTP, ...) is out of scope;
// implementations of this interface are an external collaborator.
package backend

import (
	"context"
	"io"
)

// FileType distinguishes the two folders the core lists: blobs and
// snapshot manifests.
type FileType int

const (
	// BlobFile identifies an encrypted, content-addressed blob.
	BlobFile FileType = iota
	// SnapshotFile identifies a snapshot manifest handle.
	SnapshotFile
)

func (t FileType) String() string {
	switch t {
	case BlobFile:
		return "blob"
	case SnapshotFile:
		return "snapshot"
	default:
		return "invalid"
	}
}

// Entry is one item of a backend directory listing: an opaque handle name
// (lowercase hex for blobs) and its on-backend byte size.
type Entry struct {
	Name string
	Size int64
}

// Backend is the set of operations the core needs from the remote
// storage target. List, Load and Remove are exactly the operations named
// below; RequiresNetwork feeds the verifier's concurrency bound.
type Backend interface {
	// List enumerates every handle of type t, invoking fn once per entry.
	// fn's error, if any, aborts the listing and is returned by List.
	List(ctx context.Context, t FileType, fn func(Entry) error) error

	// Load opens a decrypted read stream for the object identified by
	// (t, name) and passes it to fn. The stream abstraction is
	// responsible for decryption; verification only ever sees plaintext.
	Load(ctx context.Context, t FileType, name string, fn func(rd io.Reader) error) error

	// Remove deletes the object identified by (t, name). The core never
	// calls this itself (pruning is an external collaborator); it exists
	// so that test doubles can simulate on_blobs_removed end to end.
	Remove(ctx context.Context, t FileType, name string) error

	// RequiresNetwork reports whether this backend talks to a remote
	// service (true) or a local filesystem (false).
	RequiresNetwork() bool
}

// NotExister is implemented by backends that can classify a Load/Remove
// error as "the object does not exist" rather than a transient failure.
type NotExister interface {
	IsNotExist(err error) bool
}
