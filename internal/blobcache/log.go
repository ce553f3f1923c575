package blobcache

import (
	"bufio"
	"os"

	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/chunk"
	"github.com/restic/vaultcheck/internal/debug"
)

// SaveNewBlob appends one (chunkId, blob) record to the cache log,
// flushing the file before it is closed. Duplicate records are tolerated:
// Load keeps whichever is read first and ignores the rest.
func (c *Cache) SaveNewBlob(id chunk.ID, b blob.Descriptor) error {
	debug.Log("blobcache: save new blob %v -> %v", id.Str(), b.ID)

	f, err := os.OpenFile(c.logPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if err := encodeRecord(f, id, b); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// Allowed maps a backend blob id to its on-backend size. Load keeps only
// records whose descriptor matches an entry in Allowed exactly.
type Allowed map[blob.ID]int64

// Load streams the cache log, returning every record whose blob is
// present in allowed with a matching length. A truncated final record
// ends reading without error. Any other parse failure on a record is
// swallowed: loading stops there and the caller proceeds with whatever
// was read so far, accepting the risk of a few redundant uploads.
func (c *Cache) Load(allowed Allowed) (map[chunk.ID]blob.Descriptor, error) {
	result := make(map[chunk.ID]blob.Descriptor)

	f, err := os.Open(c.logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	for {
		id, b, err := decodeRecord(r)
		if err != nil {
			if err != errTruncated {
				debug.Log("blobcache: cache log parse error, stopping: %v", err)
			}
			break
		}

		size, ok := allowed[b.ID]
		if !ok || size != b.Length {
			debug.Log("blobcache: dropping cached blob %v, not allowed", b.ID)
			continue
		}

		if _, exists := result[id]; !exists {
			result[id] = b
		}
	}

	return result, nil
}
