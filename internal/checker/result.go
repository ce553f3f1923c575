package checker

import (
	"github.com/restic/vaultcheck/internal/manifest"
)

// State is the phase a Checker is in. A fresh or Clear()-ed Checker is
// Idle; Result is only meaningful once State has reached one of the
// three terminal values.
type State int

const (
	Idle State = iota
	Loading
	Sampling
	Verifying
	Success
	Error
	GeneralError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Sampling:
		return "sampling"
	case Verifying:
		return "verifying"
	case Success:
		return "success"
	case Error:
		return "error"
	case GeneralError:
		return "general error"
	default:
		return "unknown"
	}
}

// Result is the outcome of a completed check run. Kind selects which of
// the fields below are meaningful; GoodSnapshots and BadSnapshots are
// always derived from BadPairs and Snapshots, never stored independently
// of them.
type Result struct {
	Kind State // one of Success, Error, GeneralError

	// Percent and BytesChecked are set for Success.
	Percent      int
	BytesChecked int64

	// ExistingSnapshots is the number of snapshot handles the backend
	// listed; it may exceed len(Snapshots) if some manifests failed to
	// decode. Set for both Success and Error.
	ExistingSnapshots int

	// Snapshots is every successfully decoded snapshot, set for both
	// Success and Error.
	Snapshots []manifest.Snapshot

	// BadPairs is set for Error: every (ChunkId, Descriptor) pair that
	// failed verification in this run, by hash mismatch or backend I/O.
	BadPairs []manifest.Pair

	// Cause is set for GeneralError: the error that aborted the run
	// before sampling began.
	Cause error
}

// GoodSnapshots returns every snapshot in r.Snapshots that does not
// reference a bad pair. A snapshot sharing a ChunkId with a bad pair but
// not its Descriptor is still good.
func (r *Result) GoodSnapshots() []manifest.Snapshot {
	good, _ := r.partitionSnapshots()
	return good
}

// BadSnapshots returns every snapshot in r.Snapshots that references at
// least one bad pair.
func (r *Result) BadSnapshots() []manifest.Snapshot {
	_, bad := r.partitionSnapshots()
	return bad
}

func (r *Result) partitionSnapshots() (good, bad []manifest.Snapshot) {
	badSet := make(map[manifest.Pair]struct{}, len(r.BadPairs))
	for _, p := range r.BadPairs {
		badSet[p] = struct{}{}
	}

	for _, snap := range r.Snapshots {
		isBad := false
		for id, b := range snap.BlobsMap {
			if _, found := badSet[manifest.Pair{ChunkID: id, Blob: b}]; found {
				isBad = true
				break
			}
		}
		if isBad {
			bad = append(bad, snap)
		} else {
			good = append(good, snap)
		}
	}
	return good, bad
}
