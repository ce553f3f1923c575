package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newQuarantineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "quarantine",
		Short:             "Inspect quarantined blobs",
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:               "list",
		Short:             "List every quarantined blob id",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := gopts.openCache()
			if err != nil {
				return err
			}

			q, err := cache.GetQuarantine()
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(q))
			for id := range q {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	})

	return cmd
}
