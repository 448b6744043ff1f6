package utils

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ValidationError reports malformed or missing input. Nothing is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError names the booked interval a candidate overlaps.
type ConflictError struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Date  string `json:"date"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already booked on %s from %s to %s", e.Owner, e.Date, e.Start, e.End)
}

// DuplicateIDError is returned when a freshly allocated id is already taken.
type DuplicateIDError struct {
	Domain string
	ID     string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s id %s already exists", e.Domain, e.ID)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFound builds a NotFoundError.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// SyncFailure is a non-fatal projection failure. The primary write already succeeded.
type SyncFailure struct {
	Op  string
	ID  string
	Err error
}

func (e *SyncFailure) Error() string {
	return fmt.Sprintf("appointment sync %s for %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *SyncFailure) Unwrap() error { return e.Err }

// UnavailableError reports an optional integration that is not configured.
type UnavailableError struct {
	Service string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Service)
}

// ForbiddenError reports an operation refused in the current environment.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// UnauthorizedError reports missing or wrong credentials.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return e.Reason }

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	var (
		ve  *ValidationError
		ce  *ConflictError
		de  *DuplicateIDError
		nfe *NotFoundError
		ue  *UnavailableError
		fe  *ForbiddenError
		ae  *UnauthorizedError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nfe):
		return http.StatusNotFound
	case errors.As(err, &ce), errors.As(err, &de):
		return http.StatusConflict
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &fe):
		return http.StatusForbidden
	case errors.As(err, &ue):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
