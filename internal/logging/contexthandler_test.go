package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/myrjola/mugshots/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil))).With("source", "Test")

	ctx := logging.WithAttrs(context.Background(), slog.String("session", "abc"))
	ctx = logging.WithAttrs(ctx, slog.Int("item", 3))
	sibling := logging.WithAttrs(ctx, slog.String("sibling", "yes"))
	logger.InfoContext(ctx, "dropped")

	out := buf.String()
	require.Contains(t, out, "session=abc")
	require.Contains(t, out, "item=3")
	require.Contains(t, out, "source=Test")
	require.NotContains(t, out, "sibling")

	buf.Reset()
	logger.InfoContext(sibling, "dropped")
	require.Contains(t, buf.String(), "sibling=yes")
}
