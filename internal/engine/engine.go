// Package engine implements the change engine: it asks a generation service
// to harmonize a source text with a described regulatory change, touching
// only the passages the change affects.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/nunc/pkg/formatting"
)

// Request carries the inputs of a single harmonization.
type Request struct {
	Source     string
	Change     string
	Credential string
}

// Engine submits harmonization requests to a Provider.
type Engine struct {
	provider    Provider
	model       string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates an Engine for the provider named in cfg.
func New(cfg *Config, logger *slog.Logger) (*Engine, error) {
	p, err := NewProvider(cfg.Provider, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(p, cfg, logger), nil
}

// NewWithProvider creates an Engine around an existing Provider.
func NewWithProvider(p Provider, cfg *Config, logger *slog.Logger) *Engine {
	return &Engine{
		provider:    p,
		model:       cfg.Model,
		temperature: cfg.TemperatureValue(),
		timeout:     cfg.TimeoutDuration(),
		logger:      logger.With("system", "engine", "provider", p.Name()),
	}
}

// Model returns the model identifier sent with each request.
func (e *Engine) Model() string {
	return e.model
}

// Harmonize sends one request to the generation service and returns the
// updated text. Failures of the call are returned as *GenerationError; there
// are no retries.
func (e *Engine) Harmonize(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Credential) == "" {
		return "", ErrMissingCredential
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	completion := Completion{
		Model:       e.model,
		Messages:    BuildMessages(req.Source, req.Change),
		Temperature: e.temperature,
	}

	start := time.Now()
	text, err := e.provider.Complete(ctx, req.Credential, completion)
	if err != nil {
		e.logger.WarnContext(
			ctx, "generation failed",
			"model", e.model,
			"duration", time.Since(start),
			"error", err,
		)
		return "", &GenerationError{Provider: e.provider.Name(), Err: err}
	}

	text = formatting.Unfence(text)

	e.logger.InfoContext(
		ctx, "generation complete",
		"model", e.model,
		"source_chars", len(req.Source),
		"updated_chars", len(text),
		"duration", time.Since(start),
	)

	return text, nil
}
