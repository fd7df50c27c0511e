package httpx

import (
	"errors"
	"net/http"

	"github.com/matwana/matwana/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. The
// cross-tenant subtype renders as a plain Forbidden so responses carry no
// hint about records in other tenants; the distinction only reaches logs.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrCrossTenant), errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrHasDependents):
		Problem(w, http.StatusConflict, "Has Dependents", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
