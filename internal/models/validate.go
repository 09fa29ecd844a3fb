package models

import (
	"io/fs"
	"path"
	"strings"

	"github.com/myrjola/mugshots/internal/errors"
)

var ErrInvalidRecord = errors.NewSentinel("invalid record")

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

// ValidationReport collects the problems found in one record.
type ValidationReport struct {
	Key      string
	Problems []string
}

// OK reports whether the record had no problems.
func (r ValidationReport) OK() bool {
	return len(r.Problems) == 0
}

// Err returns nil for a valid record and an error wrapping ErrInvalidRecord otherwise.
func (r ValidationReport) Err() error {
	if r.OK() {
		return nil
	}
	return errors.Wrap(ErrInvalidRecord, r.Key+": "+strings.Join(r.Problems, "; "))
}

// ValidateCharacter checks that every field of c is filled in.
//
// Image references are resolved against images when it is not nil. A nil images skips the file checks so that
// records can be validated before their portraits exist.
func ValidateCharacter(c CharacterRecord, images fs.FS) ValidationReport {
	report := ValidationReport{Key: c.Key(), Problems: nil}
	if c.Name == "" {
		report.Problems = append(report.Problems, "name is missing")
	}
	if c.Surname == "" {
		report.Problems = append(report.Problems, "surname is missing")
	}
	if c.Sex == "" {
		report.Problems = append(report.Problems, "sex is missing")
	}
	switch {
	case c.ImageRef == "":
		report.Problems = append(report.Problems, "image is missing")
	case !isImageFile(c.ImageRef):
		report.Problems = append(report.Problems, "image is not an image file")
	case images != nil:
		if _, err := fs.Stat(images, strings.TrimPrefix(path.Clean(c.ImageRef), "/")); err != nil {
			report.Problems = append(report.Problems, "image path is invalid")
		}
	}
	if c.ItemsOwned == nil {
		report.Problems = append(report.Problems, "items owned is empty")
	}
	for _, item := range c.ItemsOwned {
		if item.Name == "" {
			report.Problems = append(report.Problems, "item has missing name")
		}
		if item.Price == 0 {
			report.Problems = append(report.Problems, "item has missing or zero price")
		}
	}
	return report
}

// ValidateSolution checks that the solution carries its key and match fields.
func ValidateSolution(s SolutionRecord) ValidationReport {
	report := ValidationReport{Key: s.PuzzleID, Problems: nil}
	if s.PuzzleID == "" {
		report.Problems = append(report.Problems, "puzzle id is missing")
	}
	if s.Name == "" {
		report.Problems = append(report.Problems, "name is missing")
	}
	if s.Sex == "" {
		report.Problems = append(report.Problems, "sex is missing")
	}
	return report
}

func isImageFile(ref string) bool {
	ext := strings.ToLower(path.Ext(ref))
	for _, valid := range imageExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}
