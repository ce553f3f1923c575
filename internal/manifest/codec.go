package manifest

import (
	"context"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/debug"
	"github.com/restic/vaultcheck/internal/errors"
)

var canonicalMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// Encode serializes a Snapshot to canonical CBOR, the same encoding
// blobcache uses for its cache log records.
func Encode(s *Snapshot) ([]byte, error) {
	return canonicalMode.Marshal(s)
}

// Decode deserializes a Snapshot previously produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "cbor.Unmarshal")
	}
	return &s, nil
}

// LoadFromBackend returns a loader function suitable as a
// checker.SnapshotLoader: it reads and decodes every handle from be. A
// backend I/O failure (the Load call itself, or reading its stream)
// aborts the whole run and is returned to the caller, which surfaces it
// as GeneralError — the backend cannot be trusted to have given a
// complete picture. A manifest that reads fine but fails to decode is
// skipped instead (with a debug log, not an error): this is what lets
// the core's Result.ExistingSnapshots exceed len(Result.Snapshots).
func LoadFromBackend(be backend.Backend) func(ctx context.Context, handles []backend.Entry) ([]Snapshot, error) {
	return func(ctx context.Context, handles []backend.Entry) ([]Snapshot, error) {
		var snapshots []Snapshot

		for _, h := range handles {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			var data []byte
			err := be.Load(ctx, backend.SnapshotFile, h.Name, func(rd io.Reader) error {
				var err error
				data, err = io.ReadAll(rd)
				return err
			})
			if err != nil {
				return nil, errors.Wrap(err, "Load")
			}

			decoded, err := Decode(data)
			if err != nil {
				debug.Log("manifest: skipping snapshot %v, decode failed: %v", h.Name, err)
				continue
			}

			snapshots = append(snapshots, *decoded)
		}

		return snapshots, nil
	}
}
