package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/nunc/pkg/storage"
)

func TestFinalizeDisabledSkipsValidation(t *testing.T) {
	cfg := storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.Enabled {
		t.Error("archive should be disabled by default")
	}
	if cfg.ContainerName != "nunc" {
		t.Errorf("container_name: got %s, want nunc", cfg.ContainerName)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_STORAGE_ENABLED", "true")
	t.Setenv("TEST_CONTAINER", "archive")
	t.Setenv("TEST_ACCOUNT_URL", "https://example.blob.core.windows.net/")

	env := &storage.Env{
		Enabled:       "TEST_STORAGE_ENABLED",
		ContainerName: "TEST_CONTAINER",
		AccountURL:    "TEST_ACCOUNT_URL",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled: got false")
	}
	if cfg.ContainerName != "archive" {
		t.Errorf("container_name: got %s, want archive", cfg.ContainerName)
	}
	if cfg.AccountURL != "https://example.blob.core.windows.net/" {
		t.Errorf("account_url: got %s", cfg.AccountURL)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "enabled without endpoint",
			cfg:     storage.Config{Enabled: true},
			wantErr: "connection_string or account_url required",
		},
		{
			name: "enabled with connection string",
			cfg:  storage.Config{Enabled: true, ConnectionString: "conn"},
		},
		{
			name: "enabled with account url",
			cfg:  storage.Config{Enabled: true, AccountURL: "https://example.blob.core.windows.net/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{ContainerName: "nunc", ConnectionString: "base-conn"}
	base.Merge(&storage.Config{Enabled: true, ConnectionString: "overlay-conn"})

	if !base.Enabled {
		t.Error("overlay should enable the archive")
	}
	if base.ContainerName != "nunc" {
		t.Errorf("container_name should remain nunc, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}
