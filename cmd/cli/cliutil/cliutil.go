// Package cliutil holds the plumbing shared by the mugshots-cli commands.
package cliutil

import (
	"log/slog"

	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/logging"
	"github.com/myrjola/mugshots/internal/sqlite"
	"github.com/spf13/cobra"
)

const (
	SqliteURLFlag = "sqlite-url"
	VerboseFlag   = "verbose"
)

// AddPersistentFlags registers the flags every command understands on the root command.
func AddPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().String(SqliteURLFlag, "./mugshots.sqlite", "SQLite URL of the record store")
	root.PersistentFlags().Bool(VerboseFlag, false, "log debug messages")
}

// Logger writes to the command's error output so that the standard output stays parseable.
func Logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, err := cmd.Flags().GetBool(VerboseFlag); err == nil && verbose {
		level = slog.LevelDebug
	}
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	})))
}

// OpenDatabase connects to the record store named by the sqlite-url flag and synchronizes its schema.
func OpenDatabase(cmd *cobra.Command, logger *slog.Logger) (*sqlite.Database, error) {
	url, err := cmd.Flags().GetString(SqliteURLFlag)
	if err != nil {
		return nil, errors.Wrap(err, "get sqlite url flag")
	}
	db, err := sqlite.NewDatabase(cmd.Context(), url, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database", slog.String("sqliteURL", url))
	}
	return db, nil
}

// CloseDatabase closes db and logs the failure since there is nothing else left to do at that point.
func CloseDatabase(cmd *cobra.Command, db *sqlite.Database, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.LogAttrs(cmd.Context(), slog.LevelError, "close database", errors.SlogError(err))
	}
}
