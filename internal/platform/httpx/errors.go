// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound      = shared.ErrNotFound
	ErrDuplicate     = shared.ErrAlreadyExists
	ErrValidation    = shared.ErrValidation
	ErrInvalidStatus = shared.ErrInvalidStatus
	ErrInUse         = shared.ErrInUse
	ErrUnavailable   = shared.ErrUnavailable
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusUnprocessableEntity, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: verr.Error(),
			Errors: verr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	case errors.Is(err, ErrInUse):
		Problem(w, http.StatusConflict, "In Use", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
