package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/nunc/pkg/handlers"
	"github.com/JaimeStill/nunc/pkg/openapi"
	"github.com/JaimeStill/nunc/pkg/routes"
	"github.com/JaimeStill/nunc/pkg/storage"
)

var archiveDownload = &openapi.Operation{
	Summary:     "Download an archived document",
	Description: "Returns an output document kept in archive storage, e.g. updates/{task-id}/NUNC_Update.docx.",
	Parameters: []*openapi.Parameter{
		{
			Name:        "key",
			In:          "path",
			Required:    true,
			Description: "Archive key",
			Schema:      &openapi.Schema{Type: "string"},
		},
	},
	Responses: map[int]*openapi.Response{
		200: {Description: "Archived document"},
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
	},
}

type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Tags:   []string{"Archive"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download, OpenAPI: archiveDownload},
		},
	}
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	blob, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("archive download interrupted", "key", key, "error", err)
	}
}
