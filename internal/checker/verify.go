package checker

import (
	"context"
	"crypto/sha256"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/backend/sema"
	"github.com/restic/vaultcheck/internal/chunk"
	"github.com/restic/vaultcheck/internal/debug"
	"github.com/restic/vaultcheck/internal/hashing"
	"github.com/restic/vaultcheck/internal/manifest"
	"github.com/restic/vaultcheck/internal/ui/progress"
)

// verify fetches and rehashes every pair in sample under a concurrency
// bound of C = min(cpu_count, requires_network ? 3 : 42), and returns
// every pair that failed verification along with the total bytes of
// every pair that did not. A hash mismatch additionally quarantines the
// blob; any other failure (I/O, decode) does not, since transient
// backend errors must not poison future runs.
//
// The returned error is non-nil only if ctx was cancelled; in that case
// the bad-pairs and byte-count results are meaningless and must be
// discarded by the caller.
func (c *Checker) verify(ctx context.Context, sample []manifest.Pair) ([]manifest.Pair, int64, error) {
	if len(sample) == 0 {
		return nil, 0, nil
	}

	var totalBytes uint64
	for _, p := range sample {
		totalBytes += uint64(p.Blob.Length)
	}

	limit := concurrencyBound(c.be.RequiresNetwork())
	if limit < 1 {
		limit = 1
	}
	sem, err := sema.New(uint(limit))
	if err != nil {
		return nil, 0, err
	}

	counter := progress.NewCounter(progressInterval, totalBytes, func(value, max uint64, d time.Duration, _ bool) {
		permille := 0
		if max > 0 {
			permille = int(value * 1000 / max)
		}
		bandwidth := 0.0
		if d > 0 {
			bandwidth = float64(value) / d.Seconds()
		}
		c.notify.ShowCheckNotification(bandwidth, permille)
	})
	defer counter.Done()

	var mu sync.Mutex
	var bad []manifest.Pair
	var bytesOK int64

	g, gctx := errgroup.WithContext(ctx)

	for _, pair := range sample {
		pair := pair

		sem.GetToken()

		g.Go(func() error {
			defer sem.ReleaseToken()

			if gctx.Err() != nil {
				return gctx.Err()
			}

			mismatch, verr := c.verifyOne(gctx, pair)
			if verr != nil {
				debug.Log("checker: verify %v (blob %v) failed: %v", pair.ChunkID.Str(), pair.Blob.ID, verr)
				mu.Lock()
				bad = append(bad, pair)
				mu.Unlock()
				return nil
			}

			if mismatch {
				debug.Log("checker: hash mismatch for %v (blob %v)", pair.ChunkID.Str(), pair.Blob.ID)
				mu.Lock()
				bad = append(bad, pair)
				qerr := c.cache.DoNotUseBlob(pair.Blob.ID)
				mu.Unlock()

				if qerr != nil {
					debug.Log("checker: failed to quarantine %v: %v", pair.Blob.ID, qerr)
				}
				return nil
			}

			mu.Lock()
			bytesOK += pair.Blob.Length
			mu.Unlock()
			counter.Add(uint64(pair.Blob.Length))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return bad, bytesOK, nil
}

// verifyOne loads the blob behind pair, recomputes its plaintext content
// hash and compares it to pair.ChunkID. The stream abstraction behind
// backend.Backend.Load is assumed to already have removed encryption
// the hash function itself is out of scope for this module,
// so SHA-256 stands in for whatever fixed function produces ChunkIds.
func (c *Checker) verifyOne(ctx context.Context, pair manifest.Pair) (mismatch bool, err error) {
	err = c.be.Load(ctx, backend.BlobFile, pair.Blob.ID.String(), func(rd io.Reader) error {
		hr := hashing.NewReader(rd, sha256.New())
		if _, cerr := io.Copy(io.Discard, hr); cerr != nil {
			return cerr
		}

		var got chunk.ID
		copy(got[:], hr.Sum(nil))
		mismatch = got != pair.ChunkID
		return nil
	})
	return mismatch, err
}
