package updates

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/nunc/internal/tasks"
)

// Request errors raised before a pipeline or task is started.
var (
	ErrFileTooLarge  = errors.New("upload exceeds the maximum size")
	ErrInvalidTaskID = errors.New("invalid task id")
	ErrInvalidWait   = errors.New("wait must be a duration between 0s and 60s")
)

// MapHTTPStatus maps request, task and pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidTaskID), errors.Is(err, ErrInvalidWait):
		return http.StatusBadRequest
	}
	return tasks.MapHTTPStatus(err)
}
