package main

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/mugshots/internal/e2etest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pickUpSelector(item string) string {
	return "form[action='/puzzle/drag/begin'][data-item='" + item + "']"
}

func dropSelector(slot string) string {
	return "form[action='/puzzle/drag/end'][data-slot='" + slot + "']"
}

func TestBoard(t *testing.T) {
	server := startTestServer(t, testLookupEnv)
	client := server.Client()
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, 4, doc.Find(".inventory .card").Length())
	require.Equal(t, 2, doc.Find(".solutions .slot").Length())
	require.Empty(t, strings.TrimSpace(doc.Find("#indicator").Text()))
	assert.Equal(t, "Alice (F)", doc.Find(".solutions .clue").First().Text())
	tooltip, ok := doc.Find(".card[data-item='0']").Attr("title")
	require.True(t, ok)
	assert.Equal(t, "Items Owned:\nPocket watch: 12 gold\nLove letter: 1 gold\n", tooltip)

	t.Run("wrong suspect is returned to the inventory", func(t *testing.T) {
		doc, err = client.SubmitForm(ctx, "/", pickUpSelector("1"))
		require.NoError(t, err)
		require.Equal(t, 1, doc.Find(".drag-layer .card[data-item='1']").Length())
		require.Equal(t, 0, doc.Find(pickUpSelector("0")).Length(), "only one item is dragged at a time")

		doc, err = client.SubmitForm(ctx, "/", dropSelector("SolutionInventory/0"))
		require.NoError(t, err)
		require.Equal(t, 0, doc.Find(".drag-layer").Length())
		require.Equal(t, 1, doc.Find(".inventory .card[data-item='1']").Length())
		require.Equal(t, 0, doc.Find(".solutions .card").Length())
	})

	t.Run("matching suspects complete the puzzle", func(t *testing.T) {
		_, err = client.SubmitForm(ctx, "/", pickUpSelector("0"))
		require.NoError(t, err)
		doc, err = client.SubmitForm(ctx, "/", dropSelector("SolutionInventory/0"))
		require.NoError(t, err)
		require.Equal(t, 1, doc.Find(".solutions [data-slot='SolutionInventory/0'] .card[data-item='0']").Length())
		require.Empty(t, strings.TrimSpace(doc.Find("#indicator").Text()))

		_, err = client.SubmitForm(ctx, "/", pickUpSelector("2"))
		require.NoError(t, err)
		doc, err = client.SubmitForm(ctx, "/", dropSelector("SolutionInventory/1"))
		require.NoError(t, err)
		require.Equal(t, "Case closed!", strings.TrimSpace(doc.Find("#indicator").Text()))
	})

	t.Run("vacating a slot hides the indicator", func(t *testing.T) {
		doc, err = client.SubmitForm(ctx, "/",
			"form[action='/puzzle/slots/vacate'][data-slot='SolutionInventory/1']")
		require.NoError(t, err)
		require.Empty(t, strings.TrimSpace(doc.Find("#indicator").Text()))
		require.Equal(t, 1, doc.Find(".inventory .card[data-item='2']").Length())
	})

	t.Run("put back returns the item to its slot", func(t *testing.T) {
		_, err = client.SubmitForm(ctx, "/", pickUpSelector("3"))
		require.NoError(t, err)
		doc, err = client.SubmitForm(ctx, "/", dropSelector(""))
		require.NoError(t, err)
		require.Equal(t, 1, doc.Find(".inventory [data-slot='CharacterInventory/3'] .card[data-item='3']").Length())
	})

	t.Run("metrics count the drops", func(t *testing.T) {
		resp, getErr := client.Get(ctx, "/metrics")
		require.NoError(t, getErr)
		defer func() {
			require.NoError(t, resp.Body.Close())
		}()
		body, readErr := io.ReadAll(resp.Body)
		require.NoError(t, readErr)
		assert.Contains(t, string(body), `mugshots_drops_total{result="matched"} 2`)
		assert.Contains(t, string(body), `mugshots_drops_total{result="mismatched"} 1`)
		assert.Contains(t, string(body), `mugshots_puzzles_solved_total 1`)
	})
}

func TestBoard_htmx(t *testing.T) {
	server := startTestServer(t, testLookupEnv)
	client := server.Client()
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	action, values, err := e2etest.FormValues(doc, pickUpSelector("0"))
	require.NoError(t, err)

	resp, err := client.PostForm(ctx, action, values, http.Header{"Hx-Request": []string{"true"}})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fragment, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 0, fragment.Find("header").Length(), "htmx requests get the board fragment only")
	require.Equal(t, 1, fragment.Find("section#board .drag-layer .card[data-item='0']").Length())
}

func TestBoard_invalidEvents(t *testing.T) {
	server := startTestServer(t, testLookupEnv)
	client := server.Client()
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	_, values, err := e2etest.FormValues(doc, pickUpSelector("0"))
	require.NoError(t, err)
	csrfToken := values.Get("csrf_token")

	tests := []struct {
		name   string
		path   string
		form   url.Values
		status int
	}{
		{
			name:   "unknown item",
			path:   "/puzzle/drag/begin",
			form:   url.Values{"csrf_token": {csrfToken}, "item": {"42"}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "end drag of an idle item",
			path:   "/puzzle/drag/end",
			form:   url.Values{"csrf_token": {csrfToken}, "item": {"0"}},
			status: http.StatusConflict,
		},
		{
			name:   "malformed slot",
			path:   "/puzzle/slots/vacate",
			form:   url.Values{"csrf_token": {csrfToken}, "slot": {"nowhere"}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing CSRF token",
			path:   "/puzzle/drag/begin",
			form:   url.Values{"item": {"0"}},
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, postErr := client.PostForm(ctx, tt.path, tt.form, nil)
			require.NoError(t, postErr)
			require.NoError(t, resp.Body.Close())
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestIndicatorStream(t *testing.T) {
	server := startTestServer(t, testLookupEnv)
	client := server.Client()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := client.Get(ctx, "/puzzle/indicator")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusNotFound, resp.StatusCode, "stream needs a puzzle")

	_, err = client.GetDoc(ctx, "/")
	require.NoError(t, err)
	resp, err = client.Get(ctx, "/puzzle/indicator")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: indicator\n", event)
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: \n", data)
}

func TestHealthy(t *testing.T) {
	server := startTestServer(t, testLookupEnv)
	resp, err := server.Client().Get(context.Background(), "/api/healthy")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}
