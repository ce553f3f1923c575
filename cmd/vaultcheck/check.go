package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/restic/vaultcheck/internal/checker"
	"github.com/restic/vaultcheck/internal/errors"
	"github.com/restic/vaultcheck/internal/manifest"
)

// checkOptions bundles the flags for the 'check' command.
type checkOptions struct {
	Percent int
}

func (opts *checkOptions) AddFlags(f *pflag.FlagSet) {
	f.IntVar(&opts.Percent, "percent", 10, "percentage of the blob population to sample and verify")
}

func newCheckCommand() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [flags]",
		Short: "Sample and verify blob content, classifying snapshots as good or bad",
		Long: `
The "check" command samples a percentage of the blobs referenced by the
repository's snapshots, fetches each one, and recomputes its content
hash. Any blob whose hash does not match is recorded and quarantined;
any snapshot that references a bad blob is reported separately from
snapshots that remain trustworthy.
`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	if opts.Percent < 0 || opts.Percent > 100 {
		return errors.Fatal("--percent must be in [0, 100]")
	}

	be, err := gopts.openBackend()
	if err != nil {
		return err
	}
	cache, err := gopts.openCache()
	if err != nil {
		return err
	}

	c := checker.New(be, cache, manifest.LoadFromBackend(be), cliNotifier{cmd})

	if err := c.Check(cmd.Context(), opts.Percent); err != nil {
		return err
	}

	return renderResult(cmd, c.Result())
}

func renderResult(cmd *cobra.Command, res *checker.Result) error {
	out := cmd.OutOrStdout()

	switch res.Kind {
	case checker.Success:
		fmt.Fprintf(out, "ok: %d snapshot(s), %d bytes checked at %d%%\n",
			len(res.Snapshots), res.BytesChecked, res.Percent)
		return nil
	case checker.GeneralError:
		return errors.Wrap(res.Cause, "check")
	default: // checker.Error
		fmt.Fprintf(out, "check found problems: %d of %d snapshot(s) bad, %d bad blob(s)\n",
			len(res.BadSnapshots()), res.ExistingSnapshots, len(res.BadPairs))
		for _, p := range res.BadPairs {
			fmt.Fprintf(out, "  bad blob: chunk %v blob %v\n", p.ChunkID, p.Blob.ID)
		}
		return errors.New("check failed")
	}
}

// cliNotifier renders the core's fire-and-forget notifications as
// plain progress lines on the command's error stream.
type cliNotifier struct {
	cmd *cobra.Command
}

func (n cliNotifier) ShowCheckNotification(bandwidthBytesPerSec float64, permille int) {
	fmt.Fprintf(n.cmd.ErrOrStderr(), "\rchecking... %d.%d%%", permille/10, permille%10)
}

func (n cliNotifier) OnCheckComplete(bytesChecked int64, bandwidthBytesPerSec float64) {
	fmt.Fprintln(n.cmd.ErrOrStderr())
}

func (n cliNotifier) OnCheckFinishedWithError(bytesChecked int64, bandwidthBytesPerSec float64) {
	fmt.Fprintln(n.cmd.ErrOrStderr())
}
