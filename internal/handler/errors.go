// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hemaview/screening-service/internal/preprocess"
)

// statusForError maps the preprocessing error taxonomy to HTTP status codes.
// Only hard input errors reach this mapping; engine failures are absorbed
// into the default screening result upstream.
func statusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var unsupported *preprocess.UnsupportedFileError
	if errors.As(err, &unsupported) {
		switch {
		case strings.Contains(unsupported.Reason, "exceeds the maximum"):
			return http.StatusRequestEntityTooLarge

		case strings.Contains(unsupported.Reason, "below the minimum"):
			return http.StatusBadRequest

		default:
			// Disallowed content type or mismatched extension
			return http.StatusUnsupportedMediaType
		}
	}

	var preErr *preprocess.PreprocessingError
	if errors.As(err, &preErr) {
		return http.StatusUnprocessableEntity
	}

	var tensorErr *preprocess.InvalidTensorError
	if errors.As(err, &tensorErr) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// writeError writes a JSON error body with the given status
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
