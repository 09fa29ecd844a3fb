package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/mugshots/cmd/cli/cliutil"
	"github.com/myrjola/mugshots/cmd/cli/mugshot"
	"github.com/myrjola/mugshots/cmd/cli/records"
	"github.com/myrjola/mugshots/internal/ai"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

func newOpenAIClient(apiKey string) ai.ImageCreator {
	return openai.NewClient(apiKey)
}

func newRootCmd(newCreator mugshot.CreatorFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mugshots-cli",
		Long:         `Command line utilities for the Mugshots line-up puzzle`,
		SilenceUsage: true,
	}
	cliutil.AddPersistentFlags(rootCmd)
	rootCmd.AddGroup(records.Group, mugshot.Group)
	rootCmd.AddCommand(records.NewImportCmd(), records.NewValidateCmd(), records.NewListCmd())
	rootCmd.AddCommand(mugshot.NewCmd(newCreator))
	return rootCmd
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(newOpenAIClient).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
