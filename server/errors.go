package server

import (
	"net/http"

	"github.com/meridianhq/meridian/errors"
)

// StatusError carries an explicit HTTP status code chosen at the failure
// site. Errors without one are mapped by class.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

// httpStatusFor maps an error to its HTTP-visible status: explicit codes
// win, then validation 400, not found 404, terminal-state conflict 409,
// everything else 500.
func httpStatusFor(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	switch {
	case errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.IsConflictError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
