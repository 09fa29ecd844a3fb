package main

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/mugshots/internal/e2etest"
	"github.com/stretchr/testify/require"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "MUGSHOTS_ADDR":
		return "localhost:0", true
	case "MUGSHOTS_SQLITE_URL":
		return ":memory:", true
	default:
		return "", false
	}
}

// startTestServer boots the application with a fresh in-memory record store seeded with the default line-up.
func startTestServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	return server
}
