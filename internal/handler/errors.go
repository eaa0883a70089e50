package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nmhoang/tripmate/backend/internal/domain"
)

// errorResponse is the JSON body for every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status. Encoding failures are logged
// but not surfaced; the status line has already been written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeDomainError maps a service error onto the HTTP taxonomy:
// validation 400, forbidden 403, not found 404, conflict 409, and a generic
// 500 for storage or other unexpected failures (details stay in the log,
// not the response).
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: unwrapMessage(err)})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: unwrapMessage(err)})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: unwrapMessage(err)})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: unwrapMessage(err)})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// badRequest answers 400 for requests rejected before reaching the service
// layer (malformed JSON, missing tripId, unparseable dates).
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// unwrapMessage strips the "layer.Type.Method:" and sentinel prefixes from a
// wrapped error so the client sees only the human-readable tail.
// e.g. "service.SubResourceService.Create: validation error: price is required"
// becomes "price is required".
func unwrapMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []string{
		domain.ErrValidation.Error(),
		domain.ErrForbidden.Error(),
		domain.ErrConflict.Error(),
		domain.ErrNotFound.Error(),
	} {
		if i := strings.Index(msg, sentinel+": "); i >= 0 {
			return msg[i+len(sentinel)+2:]
		}
		// A bare sentinel at the end of the chain has no tail to extract.
		if strings.HasSuffix(msg, sentinel) {
			return sentinel
		}
	}
	return msg
}
