package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"

	"github.com/myrjola/mugshots/internal/contexthelpers"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/ui"
)

type BaseTemplateData struct {
	CurrentPath string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
	}
}

// parseTemplates parses a template set for every directory inside ui/templates/pages.
//
// Each page directory has to define a template named "page" which is rendered inside "base".
func parseTemplates() (map[string]*template.Template, error) {
	pageDirs, err := fs.Glob(ui.Files, "templates/pages/*")
	if err != nil {
		return nil, errors.Wrap(err, "glob page directories")
	}
	templates := make(map[string]*template.Template, len(pageDirs))
	for _, dir := range pageDirs {
		pageName := path.Base(dir)
		// The FuncMap has to exist before parsing. The functions are replaced per request in render.
		var t *template.Template
		if t, err = template.New(pageName).Funcs(template.FuncMap{
			"nonce": func() template.HTMLAttr {
				panic("not implemented")
			},
			"csrf": func() template.HTML {
				panic("not implemented")
			},
		}).ParseFS(ui.Files, "templates/base.gohtml", path.Join(dir, "*.gohtml")); err != nil {
			return nil, errors.Wrap(err, "parse page template", slog.String("page", pageName))
		}
		templates[pageName] = t
	}
	return templates, nil
}

// render executes the named template of page. Full pages use "base" while htmx requests get a fragment.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, name string, data any) {
	var (
		err error
		t   *template.Template
	)

	base, ok := app.templates[page]
	if !ok {
		app.serverError(w, r, errors.New("template not found", slog.String("page", page)))
		return
	}
	if t, err = base.Clone(); err != nil {
		app.serverError(w, r, errors.Wrap(err, "clone template", slog.String("page", page)))
		return
	}

	buf := new(bytes.Buffer)
	ctx := r.Context()
	nonce := fmt.Sprintf("nonce=\"%s\"", contexthelpers.CSPNonce(ctx))
	csrf := fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=\"%s\"/>", contexthelpers.CSRFToken(ctx))
	t.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // we trust the nonce since it's not provided by user.
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec // we trust the csrf since it's not provided by user.
		},
	})
	if err = t.ExecuteTemplate(buf, name, data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("page", page), slog.String("name", name)))
		return
	}

	w.WriteHeader(status)

	_, _ = buf.WriteTo(w)
}
