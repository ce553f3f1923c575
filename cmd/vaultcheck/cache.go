package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "cache",
		Short:             "Inspect or clear the persistent blob cache",
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:               "gc",
		Short:             "Delete the persistent cache log",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := gopts.openCache()
			if err != nil {
				return err
			}
			if err := cache.ClearLocalCache(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	})

	return cmd
}
