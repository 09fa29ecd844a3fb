package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/mugshots/internal/errors"
)

const indicatorVisibleHTML = "<strong>Case closed!</strong>"

// indicator streams the completion indicator of the session's puzzle as server-sent events.
//
// The current state is sent right away and again on every change until the client goes away, the puzzle is removed or
// the server shuts down.
func (app *application) indicator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(app.sessionManager.GetString(ctx, playSessionIDKey))
	if err != nil {
		app.notFound(w, r)
		return
	}
	if _, err = app.plays.Get(id); err != nil {
		app.notFound(w, r)
		return
	}

	rc := http.NewResponseController(w)
	if err = rc.SetWriteDeadline(time.Time{}); err != nil {
		app.serverError(w, r, errors.Wrap(err, "clear write deadline"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	updates, unsubscribe := app.indicators.Subscribe(id)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case visible, ok := <-updates:
			if !ok {
				return
			}
			data := ""
			if visible {
				data = indicatorVisibleHTML
			}
			if _, err = fmt.Fprintf(w, "event: indicator\ndata: %s\n\n", data); err != nil {
				return
			}
			if err = rc.Flush(); err != nil {
				return
			}
		}
	}
}
