package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/storytail/storytail-server/internal/errors"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes a success envelope. payload must marshal cleanly.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("response encode failed")
	}
}

// writeError translates err into the status and client-facing message for
// its taxonomy branch. Detail stays server-side.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, errorResponse{Success: false, Error: apperrors.UserMessage(err)})
}
