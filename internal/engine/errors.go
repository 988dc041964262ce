package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorMarker prefixes the text form of a generation failure.
const ErrorMarker = "Errore NUNC: "

// Domain errors for change engine operations.
var (
	ErrGeneration        = errors.New("text generation failed")
	ErrMissingCredential = errors.New("credential required")
	ErrEmptyResponse     = errors.New("empty response from generation service")
	ErrUnknownProvider   = errors.New("unknown generation provider")
)

// GenerationError reports a failed call to the generation service.
// It matches both ErrGeneration and its cause with errors.Is.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrGeneration, e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

// Text returns the failure in its marked string form, suitable for flowing
// through the pipeline in place of the updated text.
func (e *GenerationError) Text() string {
	return ErrorMarker + e.Err.Error()
}

// MapHTTPStatus maps engine errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrMissingCredential) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrGeneration) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
