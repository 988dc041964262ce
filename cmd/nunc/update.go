package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/nunc/internal/config"
	"github.com/JaimeStill/nunc/internal/engine"
	"github.com/JaimeStill/nunc/internal/harmonize"
)

var (
	updateSource     string
	updateChange     string
	updateChangeFile string
	updateAPIKey     string
	updateProvider   string
	updateModel      string
	updateOut        string
	updateDiff       string
	updateInline     bool
	updateVerbose    bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a single document",
	Long: `Harmonize a DOCX document with a described regulatory change and write
the updated document. The change is read from --change or --change-file.
The API key is given with --api-key; use "--api-key -" to read it from stdin.
It is never read from the environment or from configuration files.`,
	Example: `  nunc update --source regolamento.docx --change "The fee becomes 150 EUR." --api-key sk-...
  nunc update --source regolamento.docx --change-file change.txt --provider gemini --diff diff.html --api-key - < key.txt`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	f := updateCmd.Flags()
	f.StringVarP(&updateSource, "source", "s", "", "Source DOCX document")
	f.StringVarP(&updateChange, "change", "c", "", "Description of the regulatory change")
	f.StringVar(&updateChangeFile, "change-file", "", "File containing the description of the change")
	f.StringVar(&updateAPIKey, "api-key", "", "Generation service API key, - reads it from stdin")
	f.StringVar(&updateProvider, "provider", "", "Generation provider: openai or gemini")
	f.StringVar(&updateModel, "model", "", "Model identifier (default depends on the provider)")
	f.StringVarP(&updateOut, "out", "o", harmonize.OutputFilename, "Output DOCX path")
	f.StringVar(&updateDiff, "diff", "", "Write the rendered differences as HTML to this path")
	f.BoolVar(&updateInline, "inline-errors", false, "Write generation errors into the output instead of failing")
	f.BoolVarP(&updateVerbose, "verbose", "v", false, "Log pipeline stages to stderr")
	updateCmd.MarkFlagRequired("source")
	updateCmd.MarkFlagRequired("api-key")
	updateCmd.MarkFlagsMutuallyExclusive("change", "change-file")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	change, err := readChange(updateChange, updateChangeFile)
	if err != nil {
		return err
	}

	credential, err := apiKey(updateAPIKey, cmd.InOrStdin())
	if err != nil {
		return err
	}

	document, err := os.ReadFile(updateSource)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := applyEngineFlags(&cfg.Engine, updateProvider, updateModel, updateInline); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if updateVerbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}

	eng, err := engine.New(&cfg.Engine, logger)
	if err != nil {
		return err
	}
	pipeline := harmonize.New(eng, logger, harmonize.Options{InlineErrors: cfg.Engine.InlineErrorsEnabled()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, harmonize.Request{
		Credential: credential,
		Filename:   filepath.Base(updateSource),
		Document:   document,
		Change:     change,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(updateOut, result.Document, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if updateDiff != "" {
		if err := os.WriteFile(updateDiff, []byte(result.Diff.HTML), 0o644); err != nil {
			return fmt.Errorf("write diff: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source:   %s (%d characters)\n", result.SourceName, result.SourceChars)
	fmt.Fprintf(out, "changes:  +%d -%d\n", result.Diff.Insertions, result.Diff.Deletions)
	fmt.Fprintf(out, "output:   %s\n", updateOut)
	if updateDiff != "" {
		fmt.Fprintf(out, "diff:     %s\n", updateDiff)
	}
	if result.Inlined {
		fmt.Fprintln(out, "warning:  generation failed, the error was written into the output")
	}
	return nil
}

// readChange returns the change description from the flag or the file.
func readChange(change, changeFile string) (string, error) {
	if changeFile != "" {
		data, err := os.ReadFile(changeFile)
		if err != nil {
			return "", fmt.Errorf("read change file: %w", err)
		}
		change = string(data)
	}
	if strings.TrimSpace(change) == "" {
		return "", errors.New("a change description is required (--change or --change-file)")
	}
	return change, nil
}

// applyEngineFlags overrides the configured engine. Changing the provider
// without a model resets the model to the provider default.
func applyEngineFlags(cfg *engine.Config, provider, model string, inline bool) error {
	if provider != "" && provider != cfg.Provider {
		cfg.Provider = provider
		cfg.Model = ""
	}
	if model != "" {
		cfg.Model = model
	}
	if inline {
		cfg.InlineErrors = &inline
	}
	return cfg.Finalize(nil)
}

// apiKey returns the credential given with --api-key. The value "-" reads the
// first line of stdin.
func apiKey(flag string, stdin io.Reader) (string, error) {
	if flag == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read api key: %w", err)
		}
		flag = line
	}
	key := strings.TrimSpace(flag)
	if key == "" {
		return "", errors.New("an API key is required (--api-key)")
	}
	return key, nil
}
