package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/scanner"
)

// progressInterval is how often the terminal status line is redrawn.
const progressInterval = 500 * time.Millisecond

func newScanCmd(opts *globalOptions) *cobra.Command {
	var threshold string

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory in the foreground and save the results",
		Long: heredoc.Doc(`
			Runs one scan session for dir against the database: reuses the
			stored tree when there is one, brings it up to date and saves it.
			Interrupting the scan discards the work of the current session
			but keeps earlier partial commits.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := directoryArg(args[0])
			if err != nil {
				return err
			}

			cfg := scanner.DefaultConfig()
			cfg.ProgressInterval = progressInterval
			if threshold != "" {
				v, err := humanize.ParseBytes(threshold)
				if err != nil {
					return fmt.Errorf("invalid delta-threshold: %w", err)
				}
				cfg.DeltaThreshold = int64(v)
			}

			return runScan(cmd.Context(), opts, dir, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&threshold, "delta-threshold", "", "Size change after which results are published early (e.g. 512MiB)")
	return cmd
}

func runScan(ctx context.Context, opts *globalOptions, dir string, cfg scanner.Config, out, errOut io.Writer) error {
	db, err := opts.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	enableProgress := false
	if f, ok := errOut.(*os.File); ok {
		enableProgress = isatty.IsTerminal(f.Fd())
	}

	start := time.Now()
	s := scanner.New(dir, db, filesystem.NewOSSource(), cfg)

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-s.Done():
			break wait
		case <-ctx.Done():
			if enableProgress {
				fmt.Fprint(errOut, "\r\033[2K\r")
			}
			fmt.Fprintln(errOut, "Interrupted, stopping scan...")
			s.Close()
			return ctx.Err()
		case <-ticker.C:
			if enableProgress {
				p := s.Progress()
				fmt.Fprintf(errOut, "\r\033[2K%s… %s folders, %s files\r",
					s.Activity(), humanize.Comma(p.FoldersScanned), humanize.Comma(p.FilesScanned))
			}
		}
	}
	if enableProgress {
		fmt.Fprint(errOut, "\r\033[2K\r")
	}

	if err := s.CheckHealth(); err != nil {
		return err
	}

	if err := PrintTree(out, s.Root(), 1, terminalWidth(out)); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nElapsed: %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
