// Package updates exposes the document update pipeline over HTTP, both as a
// synchronous call and as asynchronous tasks.
package updates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/nunc/internal/harmonize"
	"github.com/JaimeStill/nunc/internal/tasks"
	"github.com/JaimeStill/nunc/pkg/docx"
	"github.com/JaimeStill/nunc/pkg/handlers"
	"github.com/JaimeStill/nunc/pkg/routes"
)

// MaxWait bounds the wait query parameter of a task lookup.
const MaxWait = 60 * time.Second

// Handler provides HTTP endpoints for document updates.
type Handler struct {
	pipeline      harmonize.System
	tasks         *tasks.Manager
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given pipeline, task manager, logger, and upload size limit.
func NewHandler(
	pipeline harmonize.System,
	manager *tasks.Manager,
	logger *slog.Logger,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		pipeline:      pipeline,
		tasks:         manager,
		logger:        logger.With("handler", "updates"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for update endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/updates",
		Tags:   []string{"Updates"},
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Run, OpenAPI: Spec.Run},
			{Method: "POST", Pattern: "/document", Handler: h.RunDocument, OpenAPI: Spec.RunDocument},
			{Method: "POST", Pattern: "/tasks", Handler: h.Submit, OpenAPI: Spec.Submit},
			{Method: "GET", Pattern: "/tasks/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "GET", Pattern: "/tasks/{id}/document", Handler: h.Document, OpenAPI: Spec.Document},
			{Method: "DELETE", Pattern: "/tasks/{id}", Handler: h.Cancel, OpenAPI: Spec.Cancel},
		},
	}
}

// Run executes the pipeline within the request and returns every output as JSON.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	result, ok := h.run(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// RunDocument executes the pipeline within the request and returns only the
// updated document as a download.
func (h *Handler) RunDocument(w http.ResponseWriter, r *http.Request) {
	result, ok := h.run(w, r)
	if !ok {
		return
	}
	handlers.RespondAttachment(w, result.Filename, result.ContentType, result.Document)
}

// Submit starts an asynchronous task and responds with its initial snapshot.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	task, err := h.tasks.Submit(req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Location", "tasks/"+task.ID.String())
	handlers.RespondJSON(w, http.StatusAccepted, task)
}

// Find returns a task snapshot. With a wait query parameter the response is
// held until the task finishes or the wait elapses.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTaskID)
		return
	}

	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()

		task, err := h.tasks.Wait(ctx, id)
		if err == nil {
			handlers.RespondJSON(w, http.StatusOK, task)
			return
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
	}

	task, err := h.tasks.Find(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, task)
}

// Document returns the output document of a resolved task.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTaskID)
		return
	}

	data, err := h.tasks.Document(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondAttachment(w, harmonize.OutputFilename, docx.ContentType, data)
}

// Cancel stops a pending or running task.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTaskID)
		return
	}

	if err := h.tasks.Cancel(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*harmonize.Result, bool) {
	req, err := h.parseRequest(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	result, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	return result, true
}

func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (harmonize.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	return ParseRequest(r, h.maxUploadSize)
}

// ParseRequest reads the multipart inputs of an update. Missing fields are
// left empty for the pipeline to reject in a single validation error. A body
// limited by http.MaxBytesReader that overflows yields ErrFileTooLarge.
func ParseRequest(r *http.Request, maxMemory int64) (harmonize.Request, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return harmonize.Request{}, ErrFileTooLarge
		}
		return harmonize.Request{}, harmonize.ErrInvalidInput
	}

	req := harmonize.Request{
		Credential: credential(r),
		Change:     r.FormValue("change"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return req, nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return harmonize.Request{}, harmonize.ErrInvalidInput
	}

	req.Filename = header.Filename
	req.Document = data
	return req, nil
}

// credential prefers the form field and falls back to a bearer token.
func credential(r *http.Request) string {
	if c := strings.TrimSpace(r.FormValue("credential")); c != "" {
		return c
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func parseWait(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 || d > MaxWait {
		return 0, ErrInvalidWait
	}
	return d, nil
}
