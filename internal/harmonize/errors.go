package harmonize

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/nunc/internal/engine"
	"github.com/JaimeStill/nunc/pkg/docx"
)

// ErrInvalidInput indicates one or more required inputs are missing.
var ErrInvalidInput = errors.New("verify the credential, the source document and the change description")

// MapHTTPStatus maps pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, docx.ErrParse) {
		return http.StatusUnprocessableEntity
	}
	return engine.MapHTTPStatus(err)
}
