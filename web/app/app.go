// Package app serves the NUNC web interface: a form that submits an update
// task, a task page that follows it to completion, and the document download.
package app

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/nunc/internal/tasks"
	"github.com/JaimeStill/nunc/pkg/formatting"
	"github.com/JaimeStill/nunc/pkg/middleware"
	"github.com/JaimeStill/nunc/pkg/module"
	"github.com/JaimeStill/nunc/pkg/web"
)

//go:embed templates static
var appFS embed.FS

const layout = "app"

var (
	formView     = web.ViewDef{Route: "/{$}", Template: "form.html", Title: "Update a document"}
	taskView     = web.ViewDef{Route: "/updates/{id}", Template: "task.html", Title: "Update"}
	notFoundView = web.ViewDef{Template: "notfound.html", Title: "Not found"}
)

var funcs = template.FuncMap{
	"formatBytes": func(n int) string {
		return formatting.FormatBytes(int64(n), 1)
	},
}

// NewModule creates the web app module mounted at basePath. Uploads larger
// than maxUploadSize are rejected before a task is created.
func NewModule(basePath string, manager *tasks.Manager, logger *slog.Logger, maxUploadSize int64) (*module.Module, error) {
	ts, err := web.NewTemplateSet(
		appFS,
		"templates/layouts/*.html",
		"templates/views",
		basePath,
		funcs,
		[]web.ViewDef{formView, taskView, notFoundView},
	)
	if err != nil {
		return nil, err
	}

	static, err := web.DistServer(appFS, "static", "/static/")
	if err != nil {
		return nil, err
	}

	h := newHandler(ts, manager, logger, maxUploadSize)

	router := web.NewRouter()
	router.HandleFunc("GET "+formView.Route, h.form)
	router.HandleFunc("POST /updates", h.submit)
	router.HandleFunc("GET "+taskView.Route, h.task)
	router.HandleFunc("GET /updates/{id}/document", h.document)
	router.HandleFunc("POST /updates/{id}/cancel", h.cancel)
	router.Handle("GET /static/", static)
	router.SetFallback(ts.ErrorHandler(layout, notFoundView, http.StatusNotFound))

	m := module.New(basePath, router)
	m.Use(middleware.MaxBytes(maxUploadSize))
	m.Use(middleware.Logger(logger.With("module", "app")))

	return m, nil
}
