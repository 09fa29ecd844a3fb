// Command migratetest synchronizes the schema of a copy of the production record store and checks that the line-up
// survived the migration.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/repositories"
	"github.com/myrjola/mugshots/internal/sqlite"
	"github.com/myrjola/mugshots/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("MUGSHOTS_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "MUGSHOTS_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// Loading the full line-up exercises every table the puzzle depends on.
	characters, err := repositories.NewCharacterRepository(db, logger).List(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing characters", errors.SlogError(err))
		os.Exit(1)
	}
	solutions, err := repositories.NewSolutionRepository(db, logger).List(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing solutions", errors.SlogError(err))
		os.Exit(1)
	}
	if len(characters) == 0 || len(solutions) == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "empty line-up, something is likely wrong",
			slog.Int("characters", len(characters)), slog.Int("solutions", len(solutions)))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "line-up loaded",
		slog.Int("characters", len(characters)), slog.Int("solutions", len(solutions)))

	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
