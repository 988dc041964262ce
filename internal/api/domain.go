package api

import (
	"fmt"

	"github.com/JaimeStill/nunc/internal/config"
	"github.com/JaimeStill/nunc/internal/engine"
	"github.com/JaimeStill/nunc/internal/harmonize"
	"github.com/JaimeStill/nunc/internal/infrastructure"
	"github.com/JaimeStill/nunc/internal/tasks"
)

// Domain holds the domain systems shared by the API and the web app.
type Domain struct {
	Engine   *engine.Engine
	Pipeline harmonize.System
	Tasks    *tasks.Manager
}

// NewDomain creates all domain systems. Resolved task documents are archived
// when storage is configured.
func NewDomain(cfg *config.Config, infra *infrastructure.Infrastructure) (*Domain, error) {
	eng, err := engine.New(&cfg.Engine, infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("engine init failed: %w", err)
	}

	pipeline := harmonize.New(
		eng,
		infra.Logger,
		harmonize.Options{InlineErrors: cfg.Engine.InlineErrorsEnabled()},
	)

	var archive tasks.Archive
	if infra.Storage != nil {
		archive = infra.Storage
	}

	return &Domain{
		Engine:   eng,
		Pipeline: pipeline,
		Tasks:    tasks.New(pipeline, &cfg.Tasks, archive, infra.Logger),
	}, nil
}

// Start registers domain systems with the lifecycle coordinator.
func (d *Domain) Start(infra *infrastructure.Infrastructure) error {
	if err := d.Tasks.Start(infra.Lifecycle); err != nil {
		return fmt.Errorf("tasks start failed: %w", err)
	}
	return nil
}
