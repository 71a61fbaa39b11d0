package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/snaplist/internal/shared"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status and the message safe to show the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrNoImage),
		errors.Is(err, shared.ErrNoTextFound),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, shared.ErrHistoryNotFound):
		return http.StatusNotFound, "history record not found"
	case errors.Is(err, shared.ErrPartialExport):
		return http.StatusBadGateway, "playlist export stopped before completion"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError writes {"error": ...}. Server errors are logged with their cause and hidden from the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
