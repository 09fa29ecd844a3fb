package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/mugshots/internal/contexthelpers"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/play"
	"github.com/myrjola/mugshots/internal/puzzle"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", method), slog.String("uri", uri), slog.Any("formdata", r.PostForm), errors.SlogError(err))
	http.Error(w, http.StatusText(status), status)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, errors.New("not found"))
}

// puzzleError maps errors of puzzle events to responses. Misuse of the drag state machine is a client error.
func (app *application) puzzleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, puzzle.ErrUnknownItem), errors.Is(err, puzzle.ErrUnknownSlot):
		app.clientError(w, r, http.StatusUnprocessableEntity, err)
	case errors.Is(err, puzzle.ErrInvalidTransition), errors.Is(err, play.ErrSessionNotFound):
		app.clientError(w, r, http.StatusConflict, err)
	default:
		app.serverError(w, r, err)
	}
}

// currentSession returns the puzzle instance resolved by the playSession middleware.
func (app *application) currentSession(r *http.Request) (*play.Session, error) {
	id, ok := contexthelpers.PlaySessionID(r.Context())
	if !ok {
		return nil, errors.New("play session missing from request context")
	}
	session, err := app.plays.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get play session")
	}
	return session, nil
}

// formItemID parses the item form field.
func formItemID(r *http.Request) (puzzle.ItemID, error) {
	raw := r.PostForm.Get("item")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return puzzle.NoItem, errors.Wrap(puzzle.ErrUnknownItem, "parse item", slog.String("item", raw))
	}
	return puzzle.ItemID(id), nil
}

// formFloat parses an optional float form field. Missing fields are zero.
func formFloat(r *http.Request, key string) (float64, bool, error) {
	raw := r.PostForm.Get(key)
	if raw == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, errors.Wrap(err, "parse float", slog.String("key", key), slog.String("value", raw))
	}
	return f, true, nil
}
