package blobcache

import (
	"io"
	"os"

	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/debug"
)

// DoNotUseBlob appends id to the quarantine file.
func (c *Cache) DoNotUseBlob(id blob.ID) error {
	debug.Log("blobcache: quarantine %v", id)

	f, err := os.OpenFile(c.quarantinePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if _, err := f.Write(id[:]); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// GetQuarantine returns the set of quarantined blob ids, in hex form. A
// quarantine file whose length is not a multiple of 32 bytes, or that
// cannot be fully read, is considered corrupt: it is deleted and
// whatever was read before the failure is returned (typically empty).
func (c *Cache) GetQuarantine() (map[string]struct{}, error) {
	result := make(map[string]struct{})

	f, err := os.Open(c.quarantinePath())
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}
	defer f.Close()

	var buf [blob.Length]byte
	for {
		n, err := io.ReadFull(f, buf[:])
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			debug.Log("blobcache: quarantine file corrupt, deleting: %v", err)
			_ = os.Remove(c.quarantinePath())
			return result, nil
		}

		var id blob.ID
		copy(id[:], buf[:n])
		result[id.String()] = struct{}{}
	}
}

// OnBlobsRemoved drops every id in removed from the quarantine and
// atomically rewrites the file with the survivors. A missing quarantine
// file is a no-op.
func (c *Cache) OnBlobsRemoved(removed map[string]struct{}) error {
	if _, err := os.Stat(c.quarantinePath()); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	current, err := c.GetQuarantine()
	if err != nil {
		return err
	}

	survivors := make([]byte, 0, len(current)*blob.Length)
	for hex := range current {
		if _, gone := removed[hex]; gone {
			continue
		}
		id, err := blob.ParseID(hex)
		if err != nil {
			continue
		}
		survivors = append(survivors, id[:]...)
	}

	tmp := c.quarantinePath() + ".tmp"
	if err := os.WriteFile(tmp, survivors, 0600); err != nil {
		return err
	}

	return os.Rename(tmp, c.quarantinePath())
}
