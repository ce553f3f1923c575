package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/backend/local"
	"github.com/restic/vaultcheck/internal/blobcache"
	"github.com/restic/vaultcheck/internal/errors"
)

// globalOptions holds the flags shared by every subcommand: where the
// repository's blob/snapshot directory lives, and where the
// process-private cache directory lives.
type globalOptions struct {
	Repo     string
	CacheDir string
}

var gopts globalOptions

func (o *globalOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVarP(&o.Repo, "repo", "r", "", "repository directory (required)")
	f.StringVar(&o.CacheDir, "cache-dir", "", "process-private cache directory (defaults to <repo>/.vaultcheck-cache)")
}

func (o *globalOptions) openBackend() (backend.Backend, error) {
	if o.Repo == "" {
		return nil, errors.Fatal("--repo is required")
	}
	return local.Open(o.Repo)
}

func (o *globalOptions) openCache() (*blobcache.Cache, error) {
	dir := o.CacheDir
	if dir == "" {
		dir = filepath.Join(o.Repo, ".vaultcheck-cache")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "MkdirAll")
	}
	return blobcache.New(dir), nil
}

func init() {
	gopts.AddFlags(cmdRoot.PersistentFlags())
}
