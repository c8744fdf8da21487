package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRootsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "List stored scan roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := opts.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			roots, err := db.Roots(ctx)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored roots.")
				return nil
			}
			return PrintRoots(cmd.OutOrStdout(), roots, time.Now())
		},
	}
}
