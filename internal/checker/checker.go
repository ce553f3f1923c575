// Package checker implements the verifier: it samples a fraction of the
// blob population, fetches and rehashes each sample, quarantines hash
// mismatches, and classifies every snapshot as good or bad based on
// which blobs in it failed verification.
package checker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/blobcache"
	"github.com/restic/vaultcheck/internal/debug"
	"github.com/restic/vaultcheck/internal/errors"
	"github.com/restic/vaultcheck/internal/manifest"
	"github.com/restic/vaultcheck/internal/sampler"
)

// SnapshotLoader decrypts and decodes the snapshot manifests referenced
// by handles. It may return fewer snapshots than len(handles) if some
// fail to decode; that gap is surfaced as Result.ExistingSnapshots minus
// len(Result.Snapshots). An error here aborts the run with GeneralError.
type SnapshotLoader func(ctx context.Context, handles []backend.Entry) ([]manifest.Snapshot, error)

// Checker drives one repository's check runs. It owns no global state;
// every field is private to the instance, matching one BlobCache/backend
// pair.
type Checker struct {
	be            backend.Backend
	cache         *blobcache.Cache
	loadSnapshots SnapshotLoader
	notify        Notifier

	mu     sync.Mutex
	state  State
	result *Result
}

// New returns an idle Checker.
func New(be backend.Backend, cache *blobcache.Cache, loadSnapshots SnapshotLoader, notify Notifier) *Checker {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Checker{
		be:            be,
		cache:         cache,
		loadSnapshots: loadSnapshots,
		notify:        notify,
		state:         Idle,
	}
}

// State returns the checker's current phase.
func (c *Checker) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the outcome of the most recently completed run, or nil
// if none has completed since the last Clear.
func (c *Checker) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Clear returns the checker to Idle and discards the last result.
func (c *Checker) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.result = nil
}

func (c *Checker) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Checker) finish(result *Result) {
	c.mu.Lock()
	c.state = result.Kind
	c.result = result
	c.mu.Unlock()
}

// Check runs one verification pass at the given percentage. It never
// returns an error for anything that happened during the run itself:
// backend and manifest failures are captured in the resulting Result
// (readable via Result() once Check returns) as GeneralError or Error.
// The only error Check returns directly is InvalidArgument-shaped:
// percent outside [0, 100]. On context cancellation, Check returns the
// context's error and leaves State/Result exactly as they were before
// the call.
func (c *Checker) Check(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return errors.Errorf("percent must be in [0, 100], got %d", percent)
	}

	prevState := c.State()
	c.setState(Loading)

	lister, err := backend.MemorizeList(ctx, c.be, backend.SnapshotFile)
	if err != nil {
		if ctx.Err() != nil {
			c.setState(prevState)
			return ctx.Err()
		}
		c.finishGeneralError(err)
		return nil
	}

	var handles []backend.Entry
	err = lister.List(ctx, func(e backend.Entry) error {
		handles = append(handles, e)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			c.setState(prevState)
			return ctx.Err()
		}
		c.finishGeneralError(err)
		return nil
	}

	snapshots, err := c.loadSnapshots(ctx, handles)
	if err != nil {
		if ctx.Err() != nil {
			c.setState(prevState)
			return ctx.Err()
		}
		c.finishGeneralError(err)
		return nil
	}

	c.setState(Sampling)

	sample, err := sampler.Sample(snapshots, percent)
	if err != nil {
		c.finishGeneralError(err)
		return nil
	}

	c.setState(Verifying)

	verifyStart := time.Now()
	badPairs, bytesChecked, err := c.verify(ctx, sample)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.setState(prevState)
		return err
	}

	result := c.classify(len(handles), snapshots, badPairs, percent, bytesChecked)

	bandwidth := 0.0
	if elapsed := time.Since(verifyStart); elapsed > 0 {
		bandwidth = float64(bytesChecked) / elapsed.Seconds()
	}
	c.finish(result)

	if result.Kind == Success {
		c.notify.OnCheckComplete(bytesChecked, bandwidth)
	} else {
		c.notify.OnCheckFinishedWithError(bytesChecked, bandwidth)
	}

	return nil
}

func (c *Checker) finishGeneralError(cause error) {
	debug.Log("checker: general error before sampling: %v", cause)
	c.finish(&Result{Kind: GeneralError, Cause: cause})
	c.notify.OnCheckFinishedWithError(0, 0)
}

// classify implements the verdict rule: success requires an
// empty bad-pairs set, a complete snapshot decode, and at least one
// snapshot handle; any other case is Error, with snapshots partitioned
// by whether they reference a bad pair.
func (c *Checker) classify(handleCount int, snapshots []manifest.Snapshot, badPairs []manifest.Pair, percent int, bytesChecked int64) *Result {
	if len(badPairs) == 0 && handleCount == len(snapshots) && handleCount > 0 {
		return &Result{
			Kind:              Success,
			Percent:           percent,
			BytesChecked:      bytesChecked,
			ExistingSnapshots: handleCount,
			Snapshots:         snapshots,
		}
	}

	return &Result{
		Kind:              Error,
		ExistingSnapshots: handleCount,
		Snapshots:         snapshots,
		BadPairs:          badPairs,
	}
}

// concurrencyBound returns C = min(cpu_count, requires_network ? 3 : 42).
func concurrencyBound(requiresNetwork bool) int {
	c := runtime.GOMAXPROCS(0)
	limit := 42
	if requiresNetwork {
		limit = 3
	}
	if c < limit {
		return c
	}
	return limit
}

const progressInterval = 500 * time.Millisecond
