package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// ErrMalformedBody marks request bodies that could not be decoded.
var ErrMalformedBody = errors.New("malformed request body")

// StatusOf maps an error to its HTTP status and problem title.
func StatusOf(err error) int {
	status, _ := classify(err)
	return status
}

func classify(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "Malformed Body"
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, shared.ErrPrecondition):
		return http.StatusPreconditionFailed, "Precondition Failed"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Internal errors carry no detail.
func RespondError(w http.ResponseWriter, err error) {
	status, title := classify(err)
	detail := ""
	if status != http.StatusInternalServerError {
		detail = err.Error()
	}
	Problem(w, status, title, detail)
}
