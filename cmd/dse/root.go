package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/startup"
)

const defaultDatabaseDir = "/database"

type globalOptions struct {
	databaseDir string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:          "dse",
		Short:        "Inspect and maintain the disk space scan database",
		Version:      startup.Version,
		SilenceUsage: true,
		Long: heredoc.Doc(`
			dse reads and updates the database kept by the diskspace-examiner
			server. It can scan a directory in the foreground, print stored
			trees and check stored totals against a fresh walk.
		`),
	}
	cmd.PersistentPreRun = func(*cobra.Command, []string) {
		logging.SetLevel(logging.ParseLevel(opts.logLevel))
	}

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	cmd.PersistentFlags().StringVar(&opts.databaseDir, "database-dir", databaseDir, "Directory holding the scan database")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		newScanCmd(opts),
		newShowCmd(opts),
		newRootsCmd(opts),
		newVerifyCmd(opts),
	)
	return cmd
}

// openDatabase opens the database, creating its directory if needed.
func (o *globalOptions) openDatabase(ctx context.Context) (*database.Database, error) {
	dir, err := filepath.Abs(o.databaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving database directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return database.New(ctx, filepath.Join(dir, startup.DatabaseFile))
}

// directoryArg resolves a positional directory argument to a clean
// absolute path and checks that it is a directory.
func directoryArg(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", arg, err)
	}
	info, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("accessing path %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", abs)
	}
	return abs, nil
}

// absArg resolves a positional path argument without requiring it to
// exist, since stored results can outlive the directory.
func absArg(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", arg, err)
	}
	return abs, nil
}
