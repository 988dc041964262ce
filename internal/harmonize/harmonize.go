// Package harmonize runs the document update pipeline for a single request:
// read the source document, harmonize its text with the described change,
// then render the difference and serialize the updated document.
package harmonize

import (
	"strings"
	"time"

	"github.com/JaimeStill/nunc/pkg/redline"
)

// Fixed properties of the output document.
const (
	OutputTitle    = "Aggiornamento NUNC"
	OutputFilename = "NUNC_Update.docx"
)

// Request is the request-scoped input of a pipeline run. Nothing in it
// outlives the run.
type Request struct {
	Credential string
	Filename   string
	Document   []byte
	Change     string
}

// Validate reports ErrInvalidInput when any of the credential, the document
// or the change description is missing, without saying which one.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Credential) == "" ||
		len(r.Document) == 0 ||
		strings.TrimSpace(r.Change) == "" {
		return ErrInvalidInput
	}
	return nil
}

// Result holds every output of a pipeline run.
type Result struct {
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	SourceName  string            `json:"source_name"`
	SourceText  string            `json:"source_text"`
	SourceChars int               `json:"source_chars"`
	UpdatedText string            `json:"updated_text"`
	Diff        redline.Rendering `json:"diff"`
	Document    []byte            `json:"document"`
	Inlined     bool              `json:"inlined_error"`
	Duration    time.Duration     `json:"duration"`
}
