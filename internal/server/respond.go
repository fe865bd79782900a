package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"telematic/internal/database"
	"telematic/internal/manager"
	"telematic/internal/storage"
	"telematic/internal/wizard"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes and ships the
// message verbatim so the UI can show it as-is.
func writeError(w http.ResponseWriter, err error) {
	var verr *wizard.ValidationError

	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, manager.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, wizard.ErrDraftNotFound):
		code = http.StatusNotFound
	case errors.Is(err, database.ErrConflict),
		errors.Is(err, manager.ErrAlreadyRunning),
		errors.Is(err, manager.ErrAlreadyStopped),
		errors.Is(err, wizard.ErrCreateInFlight),
		errors.Is(err, wizard.ErrTerminal),
		errors.Is(err, wizard.ErrNotCompleted):
		code = http.StatusConflict
	case errors.Is(err, storage.ErrTooLarge):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrUnsupportedType):
		code = http.StatusUnsupportedMediaType
	}

	if code == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
