// Package importer loads character and solution records from the JSON files authored for the line-up.
package importer

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"

	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/models"
)

var ErrMalformedFile = errors.NewSentinel("malformed import file")

type CharacterStore interface {
	Upsert(ctx context.Context, record models.CharacterRecord) (bool, error)
}

type SolutionStore interface {
	Upsert(ctx context.Context, record models.SolutionRecord) (bool, error)
}

type characterFile struct {
	Characters []characterJSON `json:"Characters"`
}

type characterJSON struct {
	Name       string     `json:"name"`
	Surname    string     `json:"surname"`
	Sex        string     `json:"sex"`
	Image      string     `json:"image"`
	ItemsOwned []itemJSON `json:"itemsOwned"`
}

type itemJSON struct {
	ItemName string `json:"itemName"`
	Price    int    `json:"price"`
}

type solutionFile struct {
	Solutions []solutionJSON `json:"Solutions"`
}

type solutionJSON struct {
	PuzzleID string `json:"puzzleId"`
	Name     string `json:"name"`
	Sex      string `json:"sex"`
}

// Result summarises one import run. Invalid records are skipped and listed with their problems.
type Result struct {
	Created int
	Updated int
	Invalid []models.ValidationReport
}

type Importer struct {
	logger     *slog.Logger
	characters CharacterStore
	solutions  SolutionStore
	images     fs.FS
}

// New creates an Importer. Character portraits are checked against images unless it is nil.
func New(logger *slog.Logger, characters CharacterStore, solutions SolutionStore, images fs.FS) *Importer {
	return &Importer{
		logger:     logger.With(slog.String("source", "Importer")),
		characters: characters,
		solutions:  solutions,
		images:     images,
	}
}

// ParseCharacters decodes a characters file into records.
func ParseCharacters(r io.Reader) ([]models.CharacterRecord, error) {
	var file characterFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(errors.Join(ErrMalformedFile, err), "decode characters")
	}
	records := make([]models.CharacterRecord, 0, len(file.Characters))
	for _, c := range file.Characters {
		var items []models.OwnedItem
		if c.ItemsOwned != nil {
			items = make([]models.OwnedItem, 0, len(c.ItemsOwned))
		}
		for _, item := range c.ItemsOwned {
			items = append(items, models.OwnedItem{Name: item.ItemName, Price: item.Price})
		}
		records = append(records, models.CharacterRecord{
			Name:       c.Name,
			Surname:    c.Surname,
			Sex:        c.Sex,
			ImageRef:   c.Image,
			ItemsOwned: items,
		})
	}
	return records, nil
}

// ParseSolutions decodes a solutions file into records.
func ParseSolutions(r io.Reader) ([]models.SolutionRecord, error) {
	var file solutionFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(errors.Join(ErrMalformedFile, err), "decode solutions")
	}
	records := make([]models.SolutionRecord, 0, len(file.Solutions))
	for _, s := range file.Solutions {
		records = append(records, models.SolutionRecord{PuzzleID: s.PuzzleID, Name: s.Name, Sex: s.Sex})
	}
	return records, nil
}

// ImportCharacters validates the characters of r and upserts the valid ones keyed by name, surname and sex.
func (i *Importer) ImportCharacters(ctx context.Context, r io.Reader) (Result, error) {
	records, err := ParseCharacters(r)
	if err != nil {
		return Result{}, err
	}
	var result Result
	for _, record := range records {
		report := models.ValidateCharacter(record, i.images)
		if !report.OK() {
			i.logInvalid(ctx, report)
			result.Invalid = append(result.Invalid, report)
			continue
		}
		created, upsertErr := i.characters.Upsert(ctx, record)
		if upsertErr != nil {
			return result, errors.Wrap(upsertErr, "import character", slog.String("key", record.Key()))
		}
		result.count(created)
	}
	i.logResult(ctx, "characters", result)
	return result, nil
}

// ImportSolutions validates the solutions of r and upserts the valid ones keyed by puzzle id.
func (i *Importer) ImportSolutions(ctx context.Context, r io.Reader) (Result, error) {
	records, err := ParseSolutions(r)
	if err != nil {
		return Result{}, err
	}
	var result Result
	for _, record := range records {
		report := models.ValidateSolution(record)
		if !report.OK() {
			i.logInvalid(ctx, report)
			result.Invalid = append(result.Invalid, report)
			continue
		}
		created, upsertErr := i.solutions.Upsert(ctx, record)
		if upsertErr != nil {
			return result, errors.Wrap(upsertErr, "import solution", slog.String("puzzleID", record.PuzzleID))
		}
		result.count(created)
	}
	i.logResult(ctx, "solutions", result)
	return result, nil
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Updated++
	}
}

func (i *Importer) logInvalid(ctx context.Context, report models.ValidationReport) {
	i.logger.LogAttrs(ctx, slog.LevelWarn, "skipping invalid record", errors.SlogError(report.Err()))
}

func (i *Importer) logResult(ctx context.Context, kind string, result Result) {
	i.logger.LogAttrs(ctx, slog.LevelInfo, "import finished",
		slog.String("kind", kind),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("invalid", len(result.Invalid)))
}
