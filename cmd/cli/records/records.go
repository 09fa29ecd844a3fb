// Package records implements the commands that manage the character and solution records of the line-up.
package records

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/myrjola/mugshots/cmd/cli/cliutil"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/importer"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/repositories"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "records",
	Title: "Record operations",
}

var ErrInvalidRecords = errors.NewSentinel("invalid records")

const imagesFlag = "images"

// imagesFS returns the portrait directory given with the images flag or nil when the portraits are not checked.
func imagesFS(cmd *cobra.Command) (fs.FS, error) {
	dir, err := cmd.Flags().GetString(imagesFlag)
	if err != nil {
		return nil, errors.Wrap(err, "get images flag")
	}
	if dir == "" {
		return nil, nil
	}
	return os.DirFS(dir), nil
}

func printInvalid(w io.Writer, reports []models.ValidationReport) {
	for _, report := range reports {
		for _, problem := range report.Problems {
			_, _ = fmt.Fprintf(w, "%s: %s\n", report.Key, problem)
		}
	}
}

// NewImportCmd creates the import command with one subcommand per record file.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import",
		GroupID: Group.ID,
		Short:   "Import records",
		Long:    `Imports characters or solutions from JSON files. Existing records with the same key are updated.`,
	}

	characters := &cobra.Command{
		Use:   "characters [file]",
		Short: "Import characters",
		Long: `Imports {"Characters":[{"name","surname","sex","image","itemsOwned":[{"itemName","price"}]}]}.
Invalid characters are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := imagesFS(cmd)
			if err != nil {
				return err
			}
			return runImport(cmd, args[0], images, func(imp *importer.Importer, r io.Reader) (importer.Result, error) {
				return imp.ImportCharacters(cmd.Context(), r)
			})
		},
	}
	characters.Flags().String(imagesFlag, "", "directory the image references are relative to, e.g. ./ui/static")

	solutions := &cobra.Command{
		Use:   "solutions [file]",
		Short: "Import solutions",
		Long:  `Imports {"Solutions":[{"puzzleId","name","sex"}]}. Invalid solutions are skipped and reported.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], nil, func(imp *importer.Importer, r io.Reader) (importer.Result, error) {
				return imp.ImportSolutions(cmd.Context(), r)
			})
		},
	}

	cmd.AddCommand(characters, solutions)
	return cmd
}

func runImport(
	cmd *cobra.Command,
	path string,
	images fs.FS,
	importFunc func(*importer.Importer, io.Reader) (importer.Result, error),
) error {
	logger := cliutil.Logger(cmd)
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open import file")
	}
	defer func() {
		_ = file.Close()
	}()

	db, err := cliutil.OpenDatabase(cmd, logger)
	if err != nil {
		return err
	}
	defer cliutil.CloseDatabase(cmd, db, logger)

	imp := importer.New(
		logger,
		repositories.NewCharacterRepository(db, logger),
		repositories.NewSolutionRepository(db, logger),
		images,
	)
	result, err := importFunc(imp, file)
	if err != nil {
		return errors.Wrap(err, "import")
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "created %d, updated %d, invalid %d\n", result.Created, result.Updated, len(result.Invalid))
	printInvalid(out, result.Invalid)
	return nil
}

// NewValidateCmd creates the validate command that checks record files without importing them.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: Group.ID,
		Short:   "Validate records",
	}

	characters := &cobra.Command{
		Use:   "characters [file]",
		Short: "Validate characters",
		Long:  `Reports every missing field of the characters in file and fails when any character is invalid.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := imagesFS(cmd)
			if err != nil {
				return err
			}
			return runValidate(cmd, args[0], func(r io.Reader) ([]models.ValidationReport, error) {
				records, parseErr := importer.ParseCharacters(r)
				if parseErr != nil {
					return nil, parseErr
				}
				reports := make([]models.ValidationReport, 0, len(records))
				for _, record := range records {
					reports = append(reports, models.ValidateCharacter(record, images))
				}
				return reports, nil
			})
		},
	}
	characters.Flags().String(imagesFlag, "", "directory the image references are relative to, e.g. ./ui/static")

	solutions := &cobra.Command{
		Use:   "solutions [file]",
		Short: "Validate solutions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], func(r io.Reader) ([]models.ValidationReport, error) {
				records, parseErr := importer.ParseSolutions(r)
				if parseErr != nil {
					return nil, parseErr
				}
				reports := make([]models.ValidationReport, 0, len(records))
				for _, record := range records {
					reports = append(reports, models.ValidateSolution(record))
				}
				return reports, nil
			})
		},
	}

	cmd.AddCommand(characters, solutions)
	return cmd
}

func runValidate(cmd *cobra.Command, path string, validate func(io.Reader) ([]models.ValidationReport, error)) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open file")
	}
	defer func() {
		_ = file.Close()
	}()
	reports, err := validate(file)
	if err != nil {
		return err
	}
	var invalid []models.ValidationReport
	for _, report := range reports {
		if !report.OK() {
			invalid = append(invalid, report)
		}
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%d records, %d invalid\n", len(reports), len(invalid))
	printInvalid(out, invalid)
	if len(invalid) > 0 {
		return ErrInvalidRecords
	}
	return nil
}

// NewListCmd creates the list command that prints the line-up stored in the record store.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		GroupID: Group.ID,
		Short:   "List records",
		Long:    `Lists the stored characters with their items owned and the solutions.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := cliutil.Logger(cmd)
			db, err := cliutil.OpenDatabase(cmd, logger)
			if err != nil {
				return err
			}
			defer cliutil.CloseDatabase(cmd, db, logger)

			characters, err := repositories.NewCharacterRepository(db, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list characters")
			}
			solutions, err := repositories.NewSolutionRepository(db, logger).List(ctx)
			if err != nil {
				return errors.Wrap(err, "list solutions")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:mnd // column layout
			_, _ = fmt.Fprintln(tw, "KEY\tNAME\tSEX\tIMAGE\tITEMS")
			for _, c := range characters {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.Key(), c.FullName(), c.Sex, c.ImageRef, len(c.ItemsOwned))
			}
			_, _ = fmt.Fprintln(tw)
			_, _ = fmt.Fprintln(tw, "PUZZLE\tNAME\tSEX")
			for _, s := range solutions {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.PuzzleID, s.Name, s.Sex)
			}
			if err = tw.Flush(); err != nil {
				return errors.Wrap(err, "flush table")
			}
			return nil
		},
	}
}
