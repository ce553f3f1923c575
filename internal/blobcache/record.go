package blobcache

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/chunk"
	"github.com/restic/vaultcheck/internal/errors"
)

// canonicalMode is the CBOR encoding used for cache log records: fixed key
// order and no indefinite-length items, so two calls encoding the same
// Descriptor always produce the same bytes.
var canonicalMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// Each cache log entry on disk is a ChunkId followed by a
// length-delimited, canonically encoded BlobDescriptor.
//
// encodeRecord writes chunkID's 32 raw bytes, then a varint byte count,
// then the descriptor's canonical CBOR bytes.
func encodeRecord(w io.Writer, id chunk.ID, b blob.Descriptor) error {
	if _, err := w.Write(id[:]); err != nil {
		return err
	}

	payload, err := canonicalMode.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "marshal blob descriptor")
	}

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}

	_, err = w.Write(payload)
	return err
}

// errTruncated signals that r ended, either exactly at a record boundary
// or partway through a record, and reading must stop without error.
var errTruncated = errors.New("truncated record")

// decodeRecord reads one record from r. It returns errTruncated when r is
// exhausted exactly at a record boundary (clean EOF) or partway through
// one (a dangling write); both are end-of-log conditions, not failures.
func decodeRecord(r *bufio.Reader) (chunk.ID, blob.Descriptor, error) {
	var id chunk.ID
	var b blob.Descriptor

	n, err := io.ReadFull(r, id[:])
	if err == io.EOF {
		return id, b, errTruncated
	}
	if err != nil {
		if n > 0 {
			return id, b, errTruncated
		}
		return id, b, err
	}

	size, err := binary.ReadUvarint(r)
	if err != nil {
		return id, b, errTruncated
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return id, b, errTruncated
	}

	if err := cbor.Unmarshal(payload, &b); err != nil {
		return id, b, errors.Wrap(err, "unmarshal blob descriptor")
	}

	return id, b, nil
}
