package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/nunc/internal/api"
	"github.com/JaimeStill/nunc/internal/config"
	"github.com/JaimeStill/nunc/internal/infrastructure"
	"github.com/JaimeStill/nunc/pkg/module"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Version: "0.1.0"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return cfg
}

func setupModule(t *testing.T) (*config.Config, *module.Module) {
	t.Helper()
	cfg := validConfig(t)

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	domain, err := api.NewDomain(cfg, infra)
	if err != nil {
		t.Fatalf("NewDomain() error = %v", err)
	}

	m, err := api.NewModule(cfg, infra, domain)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	return cfg, m
}

func TestNewModule(t *testing.T) {
	_, m := setupModule(t)

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	runtime := api.NewRuntime(cfg, infra)

	if runtime.MaxUploadSize != 20*1024*1024 {
		t.Errorf("max upload size: got %d", runtime.MaxUploadSize)
	}
	if runtime.Logger == nil || runtime.Lifecycle == nil {
		t.Error("runtime should carry logger and lifecycle")
	}
	if runtime.Storage != nil {
		t.Error("runtime storage should be nil when the archive is disabled")
	}
}

func TestNewDomainUnknownProvider(t *testing.T) {
	cfg := validConfig(t)
	cfg.Engine.Provider = "unknown"

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	if _, err := api.NewDomain(cfg, infra); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenAPIDocument(t *testing.T) {
	_, m := setupModule(t)

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths      map[string]map[string]any `json:"paths"`
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.Info.Title != "NUNC API" || doc.Info.Version != "0.1.0" {
		t.Errorf("info: got %+v", doc.Info)
	}

	paths := map[string][]string{
		"/api/updates":                     {"post"},
		"/api/updates/document":            {"post"},
		"/api/updates/tasks":               {"post"},
		"/api/updates/tasks/{id}":          {"get", "delete"},
		"/api/updates/tasks/{id}/document": {"get"},
	}
	for path, methods := range paths {
		item, ok := doc.Paths[path]
		if !ok {
			t.Errorf("missing path %s", path)
			continue
		}
		for _, method := range methods {
			if _, ok := item[method]; !ok {
				t.Errorf("missing %s %s", method, path)
			}
		}
	}
	if _, ok := doc.Paths["/api/archive/{key}"]; ok {
		t.Error("archive path should not be documented when the archive is disabled")
	}

	for _, name := range []string{"Task", "Result", "Rendering", "UpdateForm", "Error"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
}

func TestArchiveRouteDisabled(t *testing.T) {
	_, m := setupModule(t)

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/archive/updates/x/NUNC_Update.docx", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestUpdateRejectsEmptyForm(t *testing.T) {
	_, m := setupModule(t)

	req := httptest.NewRequest(http.MethodPost, "/api/updates", strings.NewReader("--b--\r\n"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	rec := httptest.NewRecorder()
	m.Serve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}
