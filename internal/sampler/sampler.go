// Package sampler selects a size-weighted random subset of blobs for a
// check run to verify, biased toward application data over
// reinstallable package artifacts.
package sampler

import (
	"math"
	"math/rand"

	"github.com/restic/vaultcheck/internal/blob"
	"github.com/restic/vaultcheck/internal/errors"
	"github.com/restic/vaultcheck/internal/manifest"
)

// appShare is the fraction of the target sample size reserved for
// application data, ahead of package artifacts: data lost to a bad blob
// cannot be recovered by reinstalling, so it is checked more eagerly.
const appShare = 0.75

// Sample picks (chunkId, blob) pairs to verify out of snapshots, aiming
// for roughly percent percent of the total referenced blob bytes.
// percent must be in [0, 100]. The result is deduplicated by blob.ID:
// the same physical blob is never selected twice, even if several
// chunkIds or several snapshots reference it.
func Sample(snapshots []manifest.Snapshot, percent int) ([]manifest.Pair, error) {
	if percent < 0 || percent > 100 {
		return nil, errors.Errorf("percent must be in [0, 100], got %d", percent)
	}

	appBlobs, apkBlobs := partition(snapshots)

	appSize := totalLength(appBlobs)
	apkSize := totalLength(apkBlobs)
	totalSize := appSize + apkSize

	targetSize := roundHalfAway(float64(totalSize) * float64(percent) / 100)
	appTargetSize := roundHalfAway(float64(targetSize) * appShare)
	if appTargetSize > appSize {
		appTargetSize = appSize
	}

	rand.Shuffle(len(appBlobs), func(i, j int) { appBlobs[i], appBlobs[j] = appBlobs[j], appBlobs[i] })
	rand.Shuffle(len(apkBlobs), func(i, j int) { apkBlobs[i], apkBlobs[j] = apkBlobs[j], apkBlobs[i] })

	var sample []manifest.Pair
	var cumulative int64
	chosen := make(map[blob.ID]struct{})

	for _, p := range appBlobs {
		if cumulative >= appTargetSize {
			break
		}
		sample = append(sample, p)
		chosen[p.Blob.ID] = struct{}{}
		cumulative += p.Blob.Length
	}

	for _, p := range apkBlobs {
		if cumulative >= targetSize {
			break
		}
		if _, dup := chosen[p.Blob.ID]; dup {
			continue
		}
		sample = append(sample, p)
		cumulative += p.Blob.Length
	}

	return sample, nil
}

// partition walks every snapshot's application entries, splitting
// referenced blobs into app-data and package-artifact sets, each
// deduplicated by blob.ID: the same chunkId may legitimately
// carry different descriptors across snapshots, and each is a distinct
// candidate for sampling.
func partition(snapshots []manifest.Snapshot) (appBlobs, apkBlobs []manifest.Pair) {
	seenApp := make(map[blob.ID]struct{})
	seenApk := make(map[blob.ID]struct{})

	for _, snap := range snapshots {
		for _, app := range snap.AppsMap {
			for _, chunkID := range app.Data {
				b, ok := snap.Blob(chunkID)
				if !ok {
					continue
				}
				if _, dup := seenApp[b.ID]; dup {
					continue
				}
				seenApp[b.ID] = struct{}{}
				appBlobs = append(appBlobs, manifest.Pair{ChunkID: chunkID, Blob: b})
			}

			for _, split := range app.Package.Splits {
				for _, chunkID := range split.Chunks {
					b, ok := snap.Blob(chunkID)
					if !ok {
						continue
					}
					if _, dup := seenApk[b.ID]; dup {
						continue
					}
					seenApk[b.ID] = struct{}{}
					apkBlobs = append(apkBlobs, manifest.Pair{ChunkID: chunkID, Blob: b})
				}
			}
		}
	}

	return appBlobs, apkBlobs
}

func totalLength(pairs []manifest.Pair) int64 {
	var sum int64
	for _, p := range pairs {
		sum += p.Blob.Length
	}
	return sum
}

func roundHalfAway(f float64) int64 {
	return int64(math.Round(f))
}
