package harmonize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/nunc/internal/engine"
	"github.com/JaimeStill/nunc/pkg/docx"
	"github.com/JaimeStill/nunc/pkg/redline"
)

// Generator produces the harmonized text for a request.
type Generator interface {
	Harmonize(ctx context.Context, req engine.Request) (string, error)
}

// System runs the update pipeline.
type System interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Options tune pipeline behavior.
type Options struct {
	// InlineErrors replaces the updated text with the marked error text when
	// generation fails, and lets the run complete instead of failing.
	InlineErrors bool
}

type pipeline struct {
	gen    Generator
	logger *slog.Logger
	opts   Options
}

// New creates a pipeline System around a Generator.
func New(gen Generator, logger *slog.Logger, opts Options) System {
	return &pipeline{
		gen:    gen,
		logger: logger.With("system", "harmonize"),
		opts:   opts,
	}
}

func (p *pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	source, err := docx.ReadBytes(req.Document)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Filename, err)
	}

	p.logger.InfoContext(
		ctx, "source document read",
		"filename", req.Filename,
		"bytes", len(req.Document),
		"chars", len(source),
	)

	inlined := false
	updated, err := p.gen.Harmonize(ctx, engine.Request{
		Source:     source,
		Change:     req.Change,
		Credential: req.Credential,
	})
	if err != nil {
		var genErr *engine.GenerationError
		if !p.opts.InlineErrors || !errors.As(err, &genErr) {
			return nil, err
		}
		updated = genErr.Text()
		inlined = true
		p.logger.WarnContext(ctx, "generation error inlined into output", "error", err)
	}

	result := &Result{
		Filename:    OutputFilename,
		ContentType: docx.ContentType,
		SourceName:  req.Filename,
		SourceText:  source,
		SourceChars: len([]rune(source)),
		UpdatedText: updated,
		Inlined:     inlined,
	}

	var g errgroup.Group

	g.Go(func() error {
		result.Diff = redline.Render(source, updated)
		return nil
	})

	g.Go(func() error {
		r, err := docx.Write(OutputTitle, updated)
		if err != nil {
			return fmt.Errorf("write output document: %w", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("buffer output document: %w", err)
		}
		result.Document = data
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)

	p.logger.InfoContext(
		ctx, "pipeline complete",
		"insertions", result.Diff.Insertions,
		"deletions", result.Diff.Deletions,
		"document_bytes", len(result.Document),
		"duration", result.Duration,
	)

	return result, nil
}
