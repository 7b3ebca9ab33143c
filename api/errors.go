package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
)

// statusFor maps an error to its HTTP status. Validation problems are the
// caller's fault; anything unrecognised is a collaborator failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, address.ErrInvalidSector),
		errors.Is(err, address.ErrInvalidIndex),
		errors.Is(err, address.ErrInvalidKey),
		errors.Is(err, link.ErrMissingParam),
		errors.Is(err, intake.ErrInvalidDataURL),
		errors.Is(err, intake.ErrEmpty),
		errors.Is(err, bookmarks.ErrInvalid),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrUnsupportedContent):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, intake.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, bookmarks.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// respondErr writes err with its mapped status. Internal errors are logged
// and replaced with a generic message.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[api] %s %s failed (id=%s): %v", r.Method, r.URL.Path, RequestID(r.Context()), err)
		respondError(w, status, "internal error, please try again")
		return
	}
	respondError(w, status, err.Error())
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
