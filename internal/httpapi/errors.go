package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"validprompt/internal/providers"
	"validprompt/internal/utils"
)

const msgInternal = "Internal Server Error"

// ValidationError is a client input problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OriginRejectedError is a request from an origin other than the allowed one.
type OriginRejectedError struct {
	Origin string
}

func (e *OriginRejectedError) Error() string {
	return "CORS origin not allowed"
}

// QuotaExceededError is a refused consume against a full bucket.
type QuotaExceededError struct {
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Rate limit reached (%d/day)", e.Limit)
}

// InternalError hides Err from the client.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return msgInternal
	}
	return e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// statusFor maps an error to the status code and client message.
func statusFor(err error) (int, string) {
	var (
		validationErr *ValidationError
		originErr     *OriginRejectedError
		quotaErr      *QuotaExceededError
		upstreamErr   *providers.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.As(err, &originErr):
		return http.StatusForbidden, originErr.Error()
	case errors.As(err, &quotaErr):
		return http.StatusTooManyRequests, quotaErr.Error()
	case errors.As(err, &upstreamErr) && upstreamErr.Message != "":
		return http.StatusInternalServerError, upstreamErr.Message
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError writes the JSON error body for err and returns the status used.
func writeError(w http.ResponseWriter, err error) int {
	status, message := statusFor(err)
	utils.RespondWithError(w, status, message)
	return status
}
