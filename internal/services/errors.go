package services

import (
	"errors"

	"github.com/google/uuid"
)

// Service errors. Callers wrap them with detail via fmt.Errorf("%w: ...") and the
// HTTP layer maps them onto status codes with errors.Is.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrBadRequest    = errors.New("bad request")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrUpstream      = errors.New("upstream failure")
)

// validID reports whether id can name a stored row. Anything else is treated as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
