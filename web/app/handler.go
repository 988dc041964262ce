package app

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/nunc/internal/harmonize"
	"github.com/JaimeStill/nunc/internal/tasks"
	"github.com/JaimeStill/nunc/internal/updates"
	"github.com/JaimeStill/nunc/pkg/docx"
	"github.com/JaimeStill/nunc/pkg/handlers"
	"github.com/JaimeStill/nunc/pkg/web"
)

// refreshSeconds is the polling interval of a task page while the task is busy.
const refreshSeconds = 2

type formData struct {
	Error  string
	Change string
}

type taskData struct {
	Task    *tasks.Task
	Busy    bool
	Refresh int
	Diff    template.HTML
}

type handler struct {
	ts            *web.TemplateSet
	tasks         *tasks.Manager
	logger        *slog.Logger
	maxUploadSize int64
}

func newHandler(ts *web.TemplateSet, manager *tasks.Manager, logger *slog.Logger, maxUploadSize int64) *handler {
	return &handler{
		ts:            ts,
		tasks:         manager,
		logger:        logger.With("handler", "app"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *handler) form(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, formView, formData{})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	req, err := updates.ParseRequest(r, h.maxUploadSize)
	if err == nil {
		var task *tasks.Task
		task, err = h.tasks.Submit(req)
		if err == nil {
			http.Redirect(w, r, h.taskURL(task.ID), http.StatusSeeOther)
			return
		}
	}

	status := updates.MapHTTPStatus(err)
	h.logger.Warn("update rejected", "status", status, "error", err)
	h.render(w, status, formView, formData{
		Error:  err.Error(),
		Change: r.FormValue("change"),
	})
}

func (h *handler) task(w http.ResponseWriter, r *http.Request) {
	task, ok := h.find(w, r)
	if !ok {
		return
	}

	data := taskData{
		Task:    task,
		Busy:    !task.State.Terminal(),
		Refresh: refreshSeconds,
	}
	if task.Result != nil {
		// The rendering escapes all document text before adding its own markup.
		data.Diff = template.HTML(task.Result.Diff.HTML)
	}

	h.render(w, http.StatusOK, taskView, data)
}

func (h *handler) document(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.notFound(w)
		return
	}

	data, err := h.tasks.Document(r.Context(), id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			h.notFound(w)
			return
		}
		handlers.RespondError(w, h.logger, tasks.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondAttachment(w, harmonize.OutputFilename, docx.ContentType, data)
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.notFound(w)
		return
	}

	if err := h.tasks.Cancel(id); err != nil {
		h.notFound(w)
		return
	}

	http.Redirect(w, r, h.taskURL(id), http.StatusSeeOther)
}

func (h *handler) find(w http.ResponseWriter, r *http.Request) (*tasks.Task, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.notFound(w)
		return nil, false
	}

	task, err := h.tasks.Find(id)
	if err != nil {
		h.notFound(w)
		return nil, false
	}
	return task, true
}

func (h *handler) taskURL(id uuid.UUID) string {
	return h.ts.BasePath() + "/updates/" + id.String()
}

func (h *handler) notFound(w http.ResponseWriter) {
	h.render(w, http.StatusNotFound, notFoundView, nil)
}

func (h *handler) render(w http.ResponseWriter, status int, view web.ViewDef, data any) {
	if err := h.ts.Render(w, status, layout, view, data); err != nil {
		h.logger.Error("render failed", "template", view.Template, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
