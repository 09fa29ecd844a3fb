package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/mugshots/internal/contexthelpers"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/puzzle"
)

// newPuzzle discards the current puzzle instance and starts a fresh one from the record store.
func (app *application) newPuzzle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id, ok := contexthelpers.PlaySessionID(ctx); ok {
		app.plays.Remove(id)
	}
	session, err := app.plays.Start(ctx)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "start puzzle"))
		return
	}
	app.sessionManager.Put(ctx, playSessionIDKey, session.ID.String())
	app.respondBoard(w, r, session)
}

func (app *application) beginDrag(w http.ResponseWriter, r *http.Request) {
	session, err := app.currentSession(r)
	if err != nil {
		app.puzzleError(w, r, err)
		return
	}
	var id puzzle.ItemID
	if id, err = formItemID(r); err != nil {
		app.puzzleError(w, r, err)
		return
	}
	if _, err = session.BeginDrag(id); err != nil {
		app.puzzleError(w, r, err)
		return
	}
	app.respondBoard(w, r, session)
}

// moveDrag applies the pointer delta in the dx and dy fields to the dragged item.
func (app *application) moveDrag(w http.ResponseWriter, r *http.Request) {
	session, err := app.currentSession(r)
	if err != nil {
		app.puzzleError(w, r, err)
		return
	}
	var (
		id     puzzle.ItemID
		dx, dy float64
	)
	if id, err = formItemID(r); err != nil {
		app.puzzleError(w, r, err)
		return
	}
	if dx, _, err = formFloat(r, "dx"); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	if dy, _, err = formFloat(r, "dy"); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	if _, err = session.Drag(id, puzzle.Vector{X: dx, Y: dy}); err != nil {
		app.puzzleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// endDrag releases the dragged item on the solution slot named by the slot field. Without a slot the item is released
// at the pointer position in the x and y fields, and without either it returns to where it came from.
func (app *application) endDrag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := app.currentSession(r)
	if err != nil {
		app.puzzleError(w, r, err)
		return
	}
	var id puzzle.ItemID
	if id, err = formItemID(r); err != nil {
		app.puzzleError(w, r, err)
		return
	}

	var placement puzzle.Placement
	if raw := r.PostForm.Get("slot"); raw != "" {
		var target puzzle.SlotRef
		if target, err = puzzle.ParseSlotRef(raw); err != nil {
			app.puzzleError(w, r, err)
			return
		}
		placement, err = session.Release(id, &target)
	} else {
		var (
			x, y       float64
			hasX, hasY bool
		)
		if x, hasX, err = formFloat(r, "x"); err != nil {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
		if y, hasY, err = formFloat(r, "y"); err != nil {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
		if hasX && hasY {
			placement, err = session.EndDrag(id, puzzle.Vector{X: x, Y: y})
		} else {
			placement, err = session.Release(id, nil)
		}
	}
	if err != nil {
		app.puzzleError(w, r, err)
		return
	}
	app.logger.LogAttrs(ctx, slog.LevelDebug, "item released",
		slog.Int("item", int(placement.Item)),
		slog.String("container", placement.Container.String()),
		slog.String("result", placement.Result.String()),
		slog.String("completion", placement.Completion.String()))
	app.respondBoard(w, r, session)
}

// vacate sends the occupant of the solution slot in the slot field back to its inventory slot.
func (app *application) vacate(w http.ResponseWriter, r *http.Request) {
	session, err := app.currentSession(r)
	if err != nil {
		app.puzzleError(w, r, err)
		return
	}
	var ref puzzle.SlotRef
	if ref, err = puzzle.ParseSlotRef(r.PostForm.Get("slot")); err != nil {
		app.puzzleError(w, r, err)
		return
	}
	if _, err = session.Vacate(ref); err != nil {
		app.puzzleError(w, r, err)
		return
	}
	app.respondBoard(w, r, session)
}
