package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// ErrValidation marks malformed requests.
var ErrValidation = errors.New("validation failed")

// RespondError maps ledger errors to RFC7807 responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode):
		Problem(w, http.StatusConflict, "duplicate_code", err.Error())
	case errors.Is(err, shared.ErrInvalidStateTransition), errors.Is(err, shared.ErrBudgetNotActive):
		Problem(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, ErrValidation),
		errors.Is(err, shared.ErrUnbalancedEntry),
		errors.Is(err, shared.ErrEmptyEntry),
		errors.Is(err, shared.ErrEmptyBudget),
		errors.Is(err, shared.ErrMissingRequiredDimension),
		errors.Is(err, shared.ErrDirectPostingNotAllowed),
		errors.Is(err, shared.ErrAccountInactive),
		errors.Is(err, shared.ErrInvalidAmount):
		Problem(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "internal", "")
	}
}
