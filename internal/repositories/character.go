package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/sqlite"
)

var ErrNotFound = errors.NewSentinel("record not found")

type CharacterRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewCharacterRepository(db *sqlite.Database, logger *slog.Logger) *CharacterRepository {
	return &CharacterRepository{
		db:     db,
		logger: logger.With(slog.String("source", "CharacterRepository")),
	}
}

type characterRow struct {
	ID int64 `db:"id"`
	models.CharacterRecord
}

type ownedItemRow struct {
	CharacterID int64 `db:"character_id"`
	models.OwnedItem
}

// List returns all characters in creation order together with their owned items.
func (r *CharacterRepository) List(ctx context.Context) ([]models.CharacterRecord, error) {
	var rows []characterRow
	if err := r.db.ReadOnly.SelectContext(ctx, &rows,
		`SELECT id, name, surname, sex, image_ref FROM characters ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select characters")
	}
	var items []ownedItemRow
	if err := r.db.ReadOnly.SelectContext(ctx, &items,
		`SELECT character_id, name, price FROM owned_items ORDER BY character_id, position`); err != nil {
		return nil, errors.Wrap(err, "select owned items")
	}
	itemsByCharacter := make(map[int64][]models.OwnedItem, len(rows))
	for _, item := range items {
		itemsByCharacter[item.CharacterID] = append(itemsByCharacter[item.CharacterID], item.OwnedItem)
	}
	records := make([]models.CharacterRecord, 0, len(rows))
	for _, row := range rows {
		record := row.CharacterRecord
		record.ItemsOwned = itemsByCharacter[row.ID]
		if record.ItemsOwned == nil {
			record.ItemsOwned = []models.OwnedItem{}
		}
		records = append(records, record)
	}
	return records, nil
}

// Get returns the character with the given key fields. ErrNotFound is returned when there is none.
func (r *CharacterRepository) Get(ctx context.Context, name, surname, sex string) (models.CharacterRecord, error) {
	var row characterRow
	err := r.db.ReadOnly.GetContext(ctx, &row,
		`SELECT id, name, surname, sex, image_ref FROM characters WHERE name = ? AND surname = ? AND sex = ?`,
		name, surname, sex)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CharacterRecord{}, errors.Wrap(ErrNotFound, "get character",
			slog.String("name", name), slog.String("surname", surname), slog.String("sex", sex))
	}
	if err != nil {
		return models.CharacterRecord{}, errors.Wrap(err, "select character")
	}
	record := row.CharacterRecord
	record.ItemsOwned = []models.OwnedItem{}
	if err = r.db.ReadOnly.SelectContext(ctx, &record.ItemsOwned,
		`SELECT name, price FROM owned_items WHERE character_id = ? ORDER BY position`, row.ID); err != nil {
		return models.CharacterRecord{}, errors.Wrap(err, "select owned items")
	}
	return record, nil
}

// Upsert stores the character keyed by name, surname and sex. The owned items of an existing character are replaced.
// It reports whether a new character was created.
func (r *CharacterRepository) Upsert(ctx context.Context, record models.CharacterRecord) (bool, error) {
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
		`SELECT COUNT(*) FROM characters WHERE name = ? AND surname = ? AND sex = ?`,
		record.Name, record.Surname, record.Sex); err != nil {
		return false, errors.Wrap(err, "count existing characters")
	}

	var id int64
	if err = tx.GetContext(ctx, &id, `INSERT INTO characters (name, surname, sex, image_ref)
VALUES (?, ?, ?, ?)
ON CONFLICT (name, surname, sex) DO UPDATE SET image_ref = excluded.image_ref
RETURNING id`, record.Name, record.Surname, record.Sex, record.ImageRef); err != nil {
		return false, errors.Wrap(err, "upsert character", slog.String("key", record.Key()))
	}
	if err = replaceOwnedItems(ctx, tx, id, record.ItemsOwned); err != nil {
		return false, errors.Wrap(err, "replace owned items", slog.String("key", record.Key()))
	}
	if err = tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit transaction")
	}
	return existing == 0, nil
}

// UpdateImageRef points the character to a new portrait.
func (r *CharacterRepository) UpdateImageRef(ctx context.Context, record models.CharacterRecord, imageRef string) error {
	result, err := r.db.ReadWrite.ExecContext(ctx,
		`UPDATE characters SET image_ref = ? WHERE name = ? AND surname = ? AND sex = ?`,
		imageRef, record.Name, record.Surname, record.Sex)
	if err != nil {
		return errors.Wrap(err, "update image ref")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(ErrNotFound, "update image ref", slog.String("key", record.Key()))
	}
	return nil
}

func replaceOwnedItems(ctx context.Context, tx *sqlx.Tx, characterID int64, items []models.OwnedItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM owned_items WHERE character_id = ?`, characterID); err != nil {
		return errors.Wrap(err, "delete owned items")
	}
	for position, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owned_items (character_id, position, name, price) VALUES (?, ?, ?, ?)`,
			characterID, position, item.Name, item.Price); err != nil {
			return errors.Wrap(err, "insert owned item", slog.Int("position", position))
		}
	}
	return nil
}
