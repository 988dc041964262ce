package main

import (
	"net/http"

	"github.com/JaimeStill/nunc/internal/api"
	"github.com/JaimeStill/nunc/internal/config"
	"github.com/JaimeStill/nunc/internal/infrastructure"
	"github.com/JaimeStill/nunc/pkg/module"
	"github.com/JaimeStill/nunc/web/app"
)

// appPrefix is where the web app is mounted; the root path redirects to it.
const appPrefix = "/app"

type Modules struct {
	API *module.Module
	App *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config, domain *api.Domain) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra, domain)
	if err != nil {
		return nil, err
	}

	appModule, err := app.NewModule(
		appPrefix,
		domain.Tasks,
		infra.Logger,
		cfg.API.MaxUploadSizeBytes(),
	)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
		App: appModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", infra.Lifecycle.HealthHandler())
	router.HandleNative("GET /readyz", infra.Lifecycle.ReadyHandler())
	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, appPrefix+"/", http.StatusFound)
	})

	return router
}
