package main

import (
	"net/http"

	"github.com/donseba/go-htmx"
	"github.com/justinas/alice"
	"github.com/myrjola/mugshots/ui"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", cacheForeverHeaders(http.FileServerFS(ui.Files)))

	dynamic := alice.New(timeout, app.sessionManager.LoadAndSave, noSurf, commonContext, htmx.MiddleWare, app.playSession)

	mux.Handle("GET /{$}", dynamic.ThenFunc(app.board))
	mux.Handle("POST /puzzle/new", dynamic.ThenFunc(app.newPuzzle))
	mux.Handle("POST /puzzle/drag/begin", dynamic.ThenFunc(app.beginDrag))
	mux.Handle("POST /puzzle/drag/move", dynamic.ThenFunc(app.moveDrag))
	mux.Handle("POST /puzzle/drag/end", dynamic.ThenFunc(app.endDrag))
	mux.Handle("POST /puzzle/slots/vacate", dynamic.ThenFunc(app.vacate))

	// The indicator stream outlives the handler timeout and must not write the session.
	mux.Handle("GET /puzzle/indicator", alice.New(app.serverSentEventMiddleware).ThenFunc(app.indicator))

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})) //nolint:exhaustruct // defaults

	return app.recoverPanic(app.logRequest(app.secureHeaders(mux)))
}
