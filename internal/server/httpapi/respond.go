package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ssemyonovs/cloudvault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "response encoding error", "error", err.Error())
	}
}

// writeError maps the service error taxonomy onto status codes. Anything
// outside the taxonomy is logged and surfaced as a generic 500 so internal
// detail never reaches the caller.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var status int
	var msg string

	switch {
	case errors.Is(err, common.ErrorValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorConflict):
		status, msg = http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrorGone):
		status, msg = http.StatusGone, "file content is no longer available"
	default:
		s.logger.Error(ctx, "internal error", "error", err.Error())
		status, msg = http.StatusInternalServerError, "internal error"
	}

	s.writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}
