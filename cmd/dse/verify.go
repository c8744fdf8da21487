package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/tree"
	"diskspace-examiner/internal/workers"
)

// ErrMismatch is returned by verify when the stored totals differ from the
// walked ones.
var ErrMismatch = errors.New("stored totals do not match the filesystem")

func newVerifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir>",
		Short: "Compare stored totals with a fresh walk of a directory",
		Long: heredoc.Doc(`
			Walks dir with a parallel walker, independent of the scanner, and
			compares its size, file count and folder count with the stored
			tree. Changes made since the last scan show up as differences.

			The number of walk workers can be set with WALK_WORKERS.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := directoryArg(args[0])
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

			walked, err := Walk(ctx, dir, workers.ForWalk(0))
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), root.State(), walked)
		},
	}
}

// Walk totals every entry below dir the way a scan counts them: folders
// are real directories, everything else is a file measured by its
// allocated size. Symbolic links are not followed and unreadable entries
// are skipped.
func Walk(ctx context.Context, dir string, numWorkers int) (tree.Counters, error) {
	var size, files, folders atomic.Int64

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: numWorkers,
	}
	err := fastwalk.Walk(conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Debug("Skipping %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			folders.Add(1)
			return nil
		}
		fe, err := filesystem.Inspect(path, d)
		if err != nil {
			logging.Debug("Skipping %s: %v", path, err)
			return nil
		}
		files.Add(1)
		size.Add(fe.Allocated)
		return nil
	})
	if err != nil {
		return tree.Counters{}, fmt.Errorf("walking %s: %w", dir, err)
	}

	return tree.Counters{
		Size:            size.Load(),
		TotalFiles:      files.Load(),
		TotalSubfolders: folders.Load(),
	}, nil
}

func report(w io.Writer, stored tree.State, walked tree.Counters) error {
	fmt.Fprintf(w, "%-10s %14s %14s %14s\n", "", "SIZE", "FILES", "FOLDERS")
	fmt.Fprintf(w, "%-10s %14s %14s %14s\n", "stored",
		humanize.IBytes(uint64(max(stored.Size, 0))), humanize.Comma(stored.TotalFiles), humanize.Comma(stored.TotalSubfolders))
	fmt.Fprintf(w, "%-10s %14s %14s %14s\n", "walked",
		humanize.IBytes(uint64(max(walked.Size, 0))), humanize.Comma(walked.TotalFiles), humanize.Comma(walked.TotalSubfolders))

	if !stored.Tabulated() {
		fmt.Fprintln(w, "\nThe stored tree was never fully tabulated; its totals are estimates.")
	}

	diff := walked.Sub(stored.Counters)
	if diff.IsZero() {
		fmt.Fprintln(w, "\nOK: totals match")
		return nil
	}
	fmt.Fprintf(w, "\nDifference: %+d bytes, %+d files, %+d folders\n",
		diff.Size, diff.TotalFiles, diff.TotalSubfolders)
	return ErrMismatch
}
