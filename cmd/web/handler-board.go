package main

import (
	"net/http"
	"path"

	"github.com/myrjola/mugshots/internal/play"
	"github.com/myrjola/mugshots/internal/puzzle"
)

const unknownPortrait = "/static/portraits/unknown.png"

type cardView struct {
	ID       puzzle.ItemID
	Name     string
	ImageURL string
	// Tooltip lists the items owned by the character.
	Tooltip string
}

type inventorySlotView struct {
	Ref  string
	Card *cardView
}

type solutionSlotView struct {
	Ref   string
	Bound bool
	Name  string
	Sex   string
	Card  *cardView
}

type boardView struct {
	Inventory []inventorySlotView
	Solutions []solutionSlotView
	Dragging  *cardView
	Completed bool
	Skipped   []string
}

type boardTemplateData struct {
	BaseTemplateData
	Board boardView
}

func newCardView(item puzzle.Item) *cardView {
	if item.Record == nil {
		return &cardView{ID: item.ID, Name: "Unknown", ImageURL: unknownPortrait, Tooltip: ""}
	}
	imageURL := unknownPortrait
	if item.Record.ImageRef != "" {
		imageURL = path.Join("/static", item.Record.ImageRef)
	}
	return &cardView{
		ID:       item.ID,
		Name:     item.Record.FullName(),
		ImageURL: imageURL,
		Tooltip:  item.Record.ItemsOwnedSummary(),
	}
}

func newBoardView(snapshot play.Snapshot) boardView {
	card := func(id puzzle.ItemID) *cardView {
		item, ok := snapshot.Item(id)
		if !ok {
			return nil
		}
		return newCardView(item)
	}

	view := boardView{
		Inventory: make([]inventorySlotView, 0, len(snapshot.Inventory)),
		Solutions: make([]solutionSlotView, 0, len(snapshot.Slots)),
		Dragging:  nil,
		Completed: snapshot.Completion == puzzle.Completed,
		Skipped:   make([]string, 0, len(snapshot.Skipped)),
	}
	for _, slot := range snapshot.Inventory {
		view.Inventory = append(view.Inventory, inventorySlotView{Ref: slot.Ref.String(), Card: card(slot.Occupant)})
	}
	for _, slot := range snapshot.Slots {
		solution := solutionSlotView{Ref: slot.Ref.String(), Bound: false, Name: "", Sex: "", Card: card(slot.Occupant)}
		if slot.Record != nil {
			solution.Bound = true
			solution.Name = slot.Record.Name
			solution.Sex = slot.Record.Sex
		}
		view.Solutions = append(view.Solutions, solution)
	}
	if dragging := snapshot.Dragging(); len(dragging) > 0 {
		view.Dragging = newCardView(dragging[0])
	}
	for _, skipped := range snapshot.Skipped {
		view.Skipped = append(view.Skipped, skipped.FullName())
	}
	return view
}

func (app *application) board(w http.ResponseWriter, r *http.Request) {
	session, err := app.currentSession(r)
	if err != nil {
		app.puzzleError(w, r, err)
		return
	}
	app.respondBoard(w, r, session)
}

// respondBoard renders the board fragment for htmx requests. Plain form posts are redirected to the board page.
func (app *application) respondBoard(w http.ResponseWriter, r *http.Request, session *play.Session) {
	view := newBoardView(session.Snapshot())
	if app.htmx.NewHandler(w, r).IsHxRequest() {
		app.render(w, r, http.StatusOK, "board", "board", view)
		return
	}
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	app.render(w, r, http.StatusOK, "board", "base", boardTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Board:            view,
	})
}
