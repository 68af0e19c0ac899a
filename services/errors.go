package services

import (
	"errors"
	"net/http"
)

// Коды ошибок, которые видит клиент
const (
	CODE_BAD_REQUEST       = "BAD_REQUEST"
	CODE_UNAUTHORIZED      = "UNAUTHORIZED"
	CODE_NOT_FOUND         = "NOT_FOUND"
	CODE_TOO_MANY_REQUESTS = "TOO_MANY_REQUESTS"
	CODE_INTERNAL          = "INTERNAL_SERVER_ERROR"
)

// ErrorCode maps a service error onto the client-facing code and HTTP status.
func ErrorCode(err error) (string, int) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return CODE_BAD_REQUEST, http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return CODE_TOO_MANY_REQUESTS, http.StatusTooManyRequests
	case errors.Is(err, ErrAuthorNotFound), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials):
		return CODE_UNAUTHORIZED, http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return CODE_NOT_FOUND, http.StatusNotFound
	case errors.Is(err, ErrUserExists):
		return CODE_BAD_REQUEST, http.StatusBadRequest
	default:
		return CODE_INTERNAL, http.StatusInternalServerError
	}
}

// FieldErrors returns the field messages carried by err, if any.
func FieldErrors(err error) map[string][]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.FieldErrors
	}
	return nil
}
