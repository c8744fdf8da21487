package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"diskspace-examiner/internal/database"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "show <dir>",
		Short: "Print the stored tree for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 0 {
				return errors.New("depth cannot be negative")
			}
			dir, err := absArg(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := opts.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			root, err := db.Tree(ctx, dir)
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("no stored results cover %s; run dse scan first", dir)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return PrintTree(out, root, depth, terminalWidth(out))
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "Levels of subfolders to print (0 prints only the folder)")
	return cmd
}
