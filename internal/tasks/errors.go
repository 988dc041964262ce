package tasks

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/nunc/internal/harmonize"
)

// Domain errors for task operations.
var (
	ErrNotFound    = errors.New("task not found")
	ErrNotResolved = errors.New("task has not resolved")
)

// MapHTTPStatus maps task and pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrNotResolved) {
		return http.StatusConflict
	}
	return harmonize.MapHTTPStatus(err)
}
