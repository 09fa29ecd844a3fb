package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/mugshots/internal/e2etest"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/logging"
)

// TestPlay picks up the first suspect of a fresh puzzle and puts it back.
func TestPlay(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if _, err := client.SubmitForm(ctx, "/", "form[action='/puzzle/new']"); err != nil {
		return errors.Wrap(err, "start new puzzle")
	}
	doc, err := client.SubmitForm(ctx, "/", "form[action='/puzzle/drag/begin'][data-item='0']")
	if err != nil {
		return errors.Wrap(err, "pick up suspect")
	}
	if doc.Find(".drag-layer .card").Length() != 1 {
		return errors.New("picked up suspect not in drag layer")
	}
	if doc, err = client.SubmitForm(ctx, "/", "form[action='/puzzle/drag/end'][data-slot='']"); err != nil {
		return errors.Wrap(err, "put back suspect")
	}
	if doc.Find(".drag-layer").Length() != 0 {
		return errors.New("suspect still dragged after put back")
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestPlay(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing the puzzle", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
