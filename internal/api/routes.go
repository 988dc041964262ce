package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/nunc/internal/config"
	"github.com/JaimeStill/nunc/internal/updates"
	"github.com/JaimeStill/nunc/pkg/openapi"
	"github.com/JaimeStill/nunc/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	groups := []routes.Group{
		updates.NewHandler(
			domain.Pipeline,
			domain.Tasks,
			runtime.Logger,
			runtime.MaxUploadSize,
		).Routes(),
	}

	if runtime.Storage != nil {
		groups = append(groups, newArchiveHandler(runtime.Storage, runtime.Logger).routes())
	}

	routes.Register(mux, groups...)

	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}

func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.Components.AddSchemas(updates.Spec.Schemas)

	routes.Describe(spec, cfg.API.BasePath, groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("openapi spec: %w", err)
	}
	return data, nil
}
