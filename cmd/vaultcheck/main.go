package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/restic/vaultcheck/internal/debug"
	"github.com/restic/vaultcheck/internal/errors"
)

func init() {
	// Keep the verifier's concurrency bound honest under a
	// cgroup CPU limit; the undo function and error that Set
	// returns are not needed.
	_, _ = maxprocs.Set()
}

var cmdRoot = &cobra.Command{
	Use:   "vaultcheck",
	Short: "Maintain and verify a deduplicating backup repository's blob cache",
	Long: `
vaultcheck maintains the persistent blob cache and quarantine of a
content-addressed backup repository, and drives integrity checks that
sample a fraction of the stored blobs, rehash them, and report which
snapshots are still trustworthy.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	cmdRoot.AddCommand(newCheckCommand())
	cmdRoot.AddCommand(newCacheCommand())
	cmdRoot.AddCommand(newQuarantineCommand())
}

func main() {
	debug.Log("main %#v", os.Args)

	err := cmdRoot.ExecuteContext(context.Background())
	if err != nil {
		if errors.IsFatal(err) {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
