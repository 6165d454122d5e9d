package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrBadRequest         = errors.New("bad request")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrInconsistency      = errors.New("projection out of sync with canonical record")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// InconsistencyError records a projection write that failed after the
// canonical write it depends on had already succeeded.
type InconsistencyError struct {
	Op        string
	OwnerID   string
	TopicID   string
	ProblemID string
	Err       error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: owner=%s topic=%s problem=%s: %v", e.Op, e.OwnerID, e.TopicID, e.ProblemID, e.Err)
}

func (e *InconsistencyError) Unwrap() []error {
	return []error{ErrInconsistency, e.Err}
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	// Duplicate identities surface as 400 like any other rejected create.
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateKey) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
