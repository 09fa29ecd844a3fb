// Package mugshot implements the commands that generate character portraits.
package mugshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/myrjola/mugshots/cmd/cli/cliutil"
	"github.com/myrjola/mugshots/internal/ai"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/repositories"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var Group = &cobra.Group{
	ID:    "mugshot",
	Title: "Image operations",
}

var ErrInvalidKey = errors.NewSentinel("character key must look like name_surname_sex")

// CreatorFunc creates the image API client from the API key.
type CreatorFunc func(apiKey string) ai.ImageCreator

// NewCmd creates the mugshot command group.
func NewCmd(newCreator CreatorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mugshot",
		GroupID: Group.ID,
		Short:   "Character portraits",
	}

	generate := &cobra.Command{
		Use:   "gen [key]",
		Short: "Generate mugshots",
		Long: `Generates the portrait of the character with key name_surname_sex, or of every character with --all,
with Dall-E and writes it to the character's image reference under --images. Characters without an image
reference get portraits/<key>.png.`,
		Args: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return errors.Wrap(err, "get all flag")
			}
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, newCreator)
		},
	}
	generate.Flags().Bool("all", false, "generate a mugshot for every character")
	generate.Flags().String("images", "./ui/static", "directory the image references are relative to")
	generate.Flags().Int("concurrency", 2, "number of images generated in parallel") //nolint:mnd // API rate limits

	cmd.AddCommand(generate)
	return cmd
}

func parseKey(key string) (string, string, string, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 { //nolint:mnd // name, surname and sex
		return "", "", "", errors.Wrap(ErrInvalidKey, "parse key", slog.String("key", key))
	}
	return parts[0], parts[1], parts[2], nil
}

func runGenerate(cmd *cobra.Command, args []string, newCreator CreatorFunc) error {
	ctx := cmd.Context()
	logger := cliutil.Logger(cmd)
	flags := cmd.Flags()
	all, err := flags.GetBool("all")
	if err != nil {
		return errors.Wrap(err, "get all flag")
	}
	imagesDir, err := flags.GetString("images")
	if err != nil {
		return errors.Wrap(err, "get images flag")
	}
	concurrency, err := flags.GetInt("concurrency")
	if err != nil {
		return errors.Wrap(err, "get concurrency flag")
	}

	db, err := cliutil.OpenDatabase(cmd, logger)
	if err != nil {
		return err
	}
	defer cliutil.CloseDatabase(cmd, db, logger)
	characters := repositories.NewCharacterRepository(db, logger)

	var targets []models.CharacterRecord
	if all {
		if targets, err = characters.List(ctx); err != nil {
			return errors.Wrap(err, "list characters")
		}
	} else {
		name, surname, sex, keyErr := parseKey(args[0])
		if keyErr != nil {
			return keyErr
		}
		var character models.CharacterRecord
		if character, err = characters.Get(ctx, name, surname, sex); err != nil {
			return errors.Wrap(err, "get character", slog.String("key", args[0]))
		}
		targets = []models.CharacterRecord{character}
	}

	client := ai.NewClientWithCreator(newCreator(os.Getenv("OPENAI_API_KEY")), logger)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	var outMu sync.Mutex
	out := cmd.OutOrStdout()
	for _, character := range targets {
		g.Go(func() error {
			imageRef, genErr := generate(ctx, client, characters, imagesDir, character)
			if genErr != nil {
				return genErr
			}
			outMu.Lock()
			defer outMu.Unlock()
			_, _ = fmt.Fprintf(out, "%s: %s\n", character.Key(), imageRef)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "generate mugshots")
	}
	return nil
}

// generate writes the mugshot of character below imagesDir and returns its image reference.
func generate(
	ctx context.Context,
	client *ai.Client,
	characters *repositories.CharacterRepository,
	imagesDir string,
	character models.CharacterRecord,
) (string, error) {
	imageRef := character.ImageRef
	if imageRef == "" {
		imageRef = path.Join("portraits", strings.ToLower(character.Key())+".png")
	}
	png, err := client.GenerateMugshot(ctx, character)
	if err != nil {
		return "", err
	}
	outPath := filepath.Join(imagesDir, filepath.FromSlash(imageRef))
	if err = os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil { //nolint:mnd // rwxr-xr-x
		return "", errors.Wrap(err, "create image directory", slog.String("path", outPath))
	}
	if err = os.WriteFile(outPath, png, 0o644); err != nil { //nolint:gosec,mnd // portraits are public assets
		return "", errors.Wrap(err, "write image", slog.String("path", outPath))
	}
	if imageRef != character.ImageRef {
		if err = characters.UpdateImageRef(ctx, character, imageRef); err != nil {
			return "", errors.Wrap(err, "update image ref", slog.String("key", character.Key()))
		}
	}
	return imageRef, nil
}
