// Package api assembles the API module with the domain handlers and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/nunc/internal/config"
	"github.com/JaimeStill/nunc/internal/infrastructure"
	"github.com/JaimeStill/nunc/pkg/middleware"
	"github.com/JaimeStill/nunc/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure, domain *Domain) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
