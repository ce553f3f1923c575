// Package hashing provides an io.Reader wrapper that computes a running
// content hash of everything read through it, used by the verifier to
// recompute a blob's plaintext hash while streaming it from the backend.
package hashing

import (
	"hash"
	"io"
)

// Reader hashes all data read through it.
type Reader struct {
	r io.Reader
	h hash.Hash
}

// NewReader returns a new Reader that uses h to hash all data read
// through r.
func NewReader(r io.Reader, h hash.Hash) *Reader {
	return &Reader{
		r: r,
		h: h,
	}
}

// Read reads from the wrapped reader and hashes the bytes read.
func (h *Reader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		// hash.Hash.Write never returns an error, see its documentation.
		_, _ = h.h.Write(p[:n])
	}
	return n, err
}

// WriteTo uses the wrapped reader's WriteTo method, if available, to avoid
// an extra copy through Read while still hashing everything written.
func (h *Reader) WriteTo(w io.Writer) (int64, error) {
	if wt, ok := h.r.(io.WriterTo); ok {
		return wt.WriteTo(io.MultiWriter(w, h.h))
	}
	return io.Copy(w, onlyReader{h})
}

// Sum returns the hash of all data read so far, as computed by the
// underlying hash.Hash.
func (h *Reader) Sum(d []byte) []byte {
	return h.h.Sum(d)
}

// onlyReader hides any Writer/WriterTo method the wrapped value might
// implement, forcing io.Copy to fall back to plain Read calls.
type onlyReader struct {
	io.Reader
}
