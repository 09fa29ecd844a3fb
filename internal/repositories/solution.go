package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/sqlite"
)

type SolutionRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewSolutionRepository(db *sqlite.Database, logger *slog.Logger) *SolutionRepository {
	return &SolutionRepository{
		db:     db,
		logger: logger.With(slog.String("source", "SolutionRepository")),
	}
}

// List returns all solutions in creation order.
func (r *SolutionRepository) List(ctx context.Context) ([]models.SolutionRecord, error) {
	var solutions []models.SolutionRecord
	if err := r.db.ReadOnly.SelectContext(ctx, &solutions,
		`SELECT puzzle_id, name, sex FROM solutions ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select solutions")
	}
	return solutions, nil
}

func (r *SolutionRepository) Get(ctx context.Context, puzzleID string) (models.SolutionRecord, error) {
	var solution models.SolutionRecord
	err := r.db.ReadOnly.GetContext(ctx, &solution,
		`SELECT puzzle_id, name, sex FROM solutions WHERE puzzle_id = ?`, puzzleID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SolutionRecord{}, errors.Wrap(ErrNotFound, "get solution", slog.String("puzzleID", puzzleID))
	}
	if err != nil {
		return models.SolutionRecord{}, errors.Wrap(err, "select solution")
	}
	return solution, nil
}

// Upsert stores the solution keyed by its puzzle id. It reports whether a new solution was created.
func (r *SolutionRepository) Upsert(ctx context.Context, solution models.SolutionRecord) (bool, error) {
	tx, err := r.db.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err = tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				errors.SlogError(errors.Wrap(err, "rollback")))
		}
	}()

	var existing int
	if err = tx.GetContext(ctx, &existing,
		`SELECT COUNT(*) FROM solutions WHERE puzzle_id = ?`, solution.PuzzleID); err != nil {
		return false, errors.Wrap(err, "count existing solutions")
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO solutions (puzzle_id, name, sex)
VALUES (?, ?, ?)
ON CONFLICT (puzzle_id) DO UPDATE SET name = excluded.name, sex = excluded.sex`,
		solution.PuzzleID, solution.Name, solution.Sex); err != nil {
		return false, errors.Wrap(err, "upsert solution", slog.String("puzzleID", solution.PuzzleID))
	}
	if err = tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit transaction")
	}
	return existing == 0, nil
}
