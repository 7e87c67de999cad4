package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
)

// statusForError maps a dispatcher/domain error to an HTTP status code
// (spec §7's error kinds).
func statusForError(err error) int {
	switch {
	case errs.IsPolicyError(err):
		return http.StatusBadRequest
	case errs.IsKbInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, errs.ErrKbNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrTeamExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrToolLoopExhausted):
		return http.StatusBadGateway
	default:
		slog.Error("unexpected dispatcher error", "error", err)
		return http.StatusInternalServerError
	}
}
