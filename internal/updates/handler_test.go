package updates_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/nunc/internal/engine"
	"github.com/JaimeStill/nunc/internal/harmonize"
	"github.com/JaimeStill/nunc/internal/tasks"
	"github.com/JaimeStill/nunc/internal/updates"
	"github.com/JaimeStill/nunc/pkg/docx"
	"github.com/JaimeStill/nunc/pkg/docx/docxtest"
	"github.com/JaimeStill/nunc/pkg/lifecycle"
	"github.com/JaimeStill/nunc/pkg/routes"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	text    string
	err     error
	release chan struct{}
}

func (f *fakeGenerator) Harmonize(ctx context.Context, req engine.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type form struct {
	credential string
	change     string
	file       []byte
}

func (f form) encode(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if f.credential != "" {
		mw.WriteField("credential", f.credential)
	}
	if f.change != "" {
		mw.WriteField("change", f.change)
	}
	if f.file != nil {
		fw, err := mw.CreateFormFile("file", "regolamento.docx")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(f.file)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func validForm(t *testing.T) form {
	return form{
		credential: "sk-test",
		change:     "The fee becomes 150 EUR.",
		file:       docxtest.Build(t, "Fee: 100 EUR.", "Valid until 2024."),
	}
}

type harness struct {
	gen *fakeGenerator
	lc  *lifecycle.Coordinator
	mux *http.ServeMux
}

func setup(t *testing.T, gen *fakeGenerator, maxUploadSize int64) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := harmonize.New(gen, logger, harmonize.Options{})

	lc := lifecycle.New()
	manager := tasks.New(pipeline, &tasks.Config{MaxConcurrent: 2, Capacity: 16, Retention: "1h"}, nil, logger)
	if err := manager.Start(lc); err != nil {
		t.Fatalf("start manager: %v", err)
	}
	t.Cleanup(func() { lc.Shutdown(5 * time.Second) })

	h := updates.NewHandler(pipeline, manager, logger, maxUploadSize)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())

	return &harness{gen: gen, lc: lc, mux: mux}
}

func (h *harness) post(t *testing.T, path string, f form) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := f.encode(t)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func (h *harness) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func TestRunReturnsResult(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "Fee: 150 EUR.\nValid until 2024."}, 1<<20)

	rec := h.post(t, "/updates", validForm(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	result := decode[harmonize.Result](t, rec)
	if result.UpdatedText != "Fee: 150 EUR.\nValid until 2024." {
		t.Errorf("updated text = %q", result.UpdatedText)
	}
	if result.SourceName != "regolamento.docx" {
		t.Errorf("source name = %q", result.SourceName)
	}
	if result.Diff.Insertions != 1 || result.Diff.Deletions != 1 {
		t.Errorf("diff counts = +%d -%d", result.Diff.Insertions, result.Diff.Deletions)
	}
	if len(result.Document) == 0 {
		t.Error("document should be included")
	}
}

func TestRunDocumentDownload(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "Fee: 150 EUR."}, 1<<20)

	rec := h.post(t, "/updates/document", validForm(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != docx.ContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="NUNC_Update.docx"`) {
		t.Errorf("content disposition = %q", cd)
	}

	text, err := docx.ReadBytes(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("read downloaded document: %v", err)
	}
	if !strings.Contains(text, "Fee: 150 EUR.") {
		t.Errorf("downloaded text = %q", text)
	}
}

func TestValidationNeverInvokesEngine(t *testing.T) {
	doc := docxtest.Build(t, "Fee: 100 EUR.")

	tests := []struct {
		name string
		form form
	}{
		{"missing credential", form{change: "raise the fee", file: doc}},
		{"missing file", form{credential: "sk-test", change: "raise the fee"}},
		{"empty change", form{credential: "sk-test", file: doc}},
		{"blank change", form{credential: "sk-test", change: "   ", file: doc}},
	}

	for _, path := range []string{"/updates", "/updates/document", "/updates/tasks"} {
		for _, tt := range tests {
			t.Run(path+"/"+tt.name, func(t *testing.T) {
				h := setup(t, &fakeGenerator{text: "unused"}, 1<<20)

				rec := h.post(t, path, tt.form)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("status = %d, want 400", rec.Code)
				}
				if msg := errorMessage(t, rec); msg != harmonize.ErrInvalidInput.Error() {
					t.Errorf("error = %q", msg)
				}
				if h.gen.Calls() != 0 {
					t.Errorf("engine invoked %d times", h.gen.Calls())
				}
			})
		}
	}
}

func TestBearerCredential(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "Fee: 150 EUR."}, 1<<20)

	f := validForm(t)
	f.credential = ""
	body, contentType := f.encode(t)

	req := httptest.NewRequest(http.MethodPost, "/updates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer sk-header")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if h.gen.Calls() != 1 {
		t.Errorf("engine calls = %d, want 1", h.gen.Calls())
	}
}

func TestRunErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		gen    *fakeGenerator
		file   []byte
		status int
	}{
		{
			name:   "unreadable document",
			gen:    &fakeGenerator{text: "unused"},
			file:   []byte("not a zip archive"),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "generation failure",
			gen:    &fakeGenerator{err: &engine.GenerationError{Provider: "fake", Err: errors.New("rate limited")}},
			file:   docxtest.Build(t, "The rate is 5%."),
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t, tt.gen, 1<<20)

			f := validForm(t)
			f.file = tt.file
			rec := h.post(t, "/updates", f)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "unused"}, 1024)

	f := validForm(t)
	f.file = bytes.Repeat([]byte("x"), 4096)
	rec := h.post(t, "/updates", f)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if h.gen.Calls() != 0 {
		t.Error("engine should not be invoked")
	}
}

func TestNotMultipart(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "unused"}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/updates", strings.NewReader(`{"change":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "Fee: 150 EUR."}, 1<<20)

	rec := h.post(t, "/updates/tasks", validForm(t))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	submitted := decode[tasks.Task](t, rec)
	if loc := rec.Header().Get("Location"); loc != "tasks/"+submitted.ID.String() {
		t.Errorf("location = %q", loc)
	}

	rec = h.do(http.MethodGet, "/updates/tasks/"+submitted.ID.String()+"?wait=5s")
	if rec.Code != http.StatusOK {
		t.Fatalf("find status = %d", rec.Code)
	}
	task := decode[tasks.Task](t, rec)
	if task.State != tasks.StateResolved {
		t.Fatalf("state = %s, want resolved", task.State)
	}
	if task.Result == nil || task.Result.UpdatedText != "Fee: 150 EUR." {
		t.Errorf("result = %+v", task.Result)
	}

	rec = h.do(http.MethodGet, "/updates/tasks/"+submitted.ID.String()+"/document")
	if rec.Code != http.StatusOK {
		t.Fatalf("document status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "NUNC_Update.docx") {
		t.Errorf("content disposition = %q", cd)
	}

	rec = h.do(http.MethodDelete, "/updates/tasks/"+submitted.ID.String())
	if rec.Code != http.StatusNoContent {
		t.Errorf("cancel finished task status = %d, want 204", rec.Code)
	}
}

func TestCancelRunningTask(t *testing.T) {
	gen := &fakeGenerator{text: "unused", release: make(chan struct{})}
	h := setup(t, gen, 1<<20)

	rec := h.post(t, "/updates/tasks", validForm(t))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d", rec.Code)
	}
	id := decode[tasks.Task](t, rec).ID.String()

	rec = h.do(http.MethodGet, "/updates/tasks/"+id+"/document")
	if rec.Code != http.StatusConflict {
		t.Errorf("document of unfinished task status = %d, want 409", rec.Code)
	}

	rec = h.do(http.MethodDelete, "/updates/tasks/"+id)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d", rec.Code)
	}

	rec = h.do(http.MethodGet, "/updates/tasks/"+id+"?wait=5s")
	if state := decode[tasks.Task](t, rec).State; state != tasks.StateCancelled {
		t.Errorf("state = %s, want cancelled", state)
	}
}

func TestTaskRequestErrors(t *testing.T) {
	h := setup(t, &fakeGenerator{text: "unused"}, 1<<20)
	unknown := "6f1c1c8e-2f43-4a8e-9c49-3b0a5e0f7d21"

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"find invalid id", http.MethodGet, "/updates/tasks/not-a-uuid", http.StatusBadRequest},
		{"find unknown", http.MethodGet, "/updates/tasks/" + unknown, http.StatusNotFound},
		{"wait unknown", http.MethodGet, "/updates/tasks/" + unknown + "?wait=1s", http.StatusNotFound},
		{"invalid wait", http.MethodGet, "/updates/tasks/" + unknown + "?wait=soon", http.StatusBadRequest},
		{"wait too long", http.MethodGet, "/updates/tasks/" + unknown + "?wait=2m", http.StatusBadRequest},
		{"document invalid id", http.MethodGet, "/updates/tasks/nope/document", http.StatusBadRequest},
		{"document unknown", http.MethodGet, "/updates/tasks/" + unknown + "/document", http.StatusNotFound},
		{"cancel invalid id", http.MethodDelete, "/updates/tasks/nope", http.StatusBadRequest},
		{"cancel unknown", http.MethodDelete, "/updates/tasks/" + unknown, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(tt.method, tt.path)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{updates.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{updates.ErrInvalidTaskID, http.StatusBadRequest},
		{updates.ErrInvalidWait, http.StatusBadRequest},
		{tasks.ErrNotFound, http.StatusNotFound},
		{tasks.ErrNotResolved, http.StatusConflict},
		{harmonize.ErrInvalidInput, http.StatusBadRequest},
		{docx.ErrParse, http.StatusUnprocessableEntity},
		{engine.ErrGeneration, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := updates.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRoutesDocumented(t *testing.T) {
	h := updates.NewHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 1)
	for _, r := range h.Routes().Routes {
		if r.OpenAPI == nil {
			t.Errorf("%s %s has no OpenAPI operation", r.Method, r.Pattern)
		}
	}
}
