// Package blobcache implements the persistent, process-private cache of
// (ChunkId, BlobDescriptor) pairs produced by a backup run, plus the
// quarantine of blob ids known to fail verification. Both files are
// best-effort accelerators: their loss is never fatal, only a few
// duplicate uploads or a wider-than-necessary verification sample.
package blobcache

import (
	"os"
	"path/filepath"

	"github.com/restic/vaultcheck/internal/debug"
)

// logFileName and quarantineFileName are the fixed names used within the
// cache directory, matching the layout described for the core.
const (
	logFileName        = "blobsCache"
	quarantineFileName = "doNotUseBlobs"
)

// Cache owns the two files backing one repository's persistent state.
// It is not safe for concurrent writers; callers serialize writes
// upstream.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir, which must already exist.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) logPath() string {
	return filepath.Join(c.dir, logFileName)
}

func (c *Cache) quarantinePath() string {
	return filepath.Join(c.dir, quarantineFileName)
}

// ClearLocalCache deletes the cache log file. A missing file is not an
// error.
func (c *Cache) ClearLocalCache() error {
	debug.Log("blobcache: clear local cache %v", c.logPath())

	err := os.Remove(c.logPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
