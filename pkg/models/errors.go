package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when the session has no usable token or the service rejects it
	ErrUnauthenticated = errors.New("authentication required")
	// ErrSelectExactlyTwo is returned when a comparison is requested without exactly two selected documents
	ErrSelectExactlyTwo = errors.New("select exactly 2 documents to compare")
	// ErrSelectionLimit is returned when a selection would exceed the combined cap
	ErrSelectionLimit = errors.New("you can only select 2 documents in total")
	// ErrPreviewUnavailable is returned when a preview payload cannot be materialized
	ErrPreviewUnavailable = errors.New("unable to load preview")
	// ErrReleased is returned when a released blob is accessed
	ErrReleased = errors.New("blob released")
	// ErrTabUnavailable is returned when a tab does not apply to the compared media
	ErrTabUnavailable = errors.New("tab not available for these documents")
	// ErrModalClosed is returned when a closed comparison view is used
	ErrModalClosed = errors.New("comparison view is closed")
	// ErrNoOverlap is returned when two images share no overlapping pixels
	ErrNoOverlap = errors.New("images have no overlapping area")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// SelectionError is a rejected selection change
type SelectionError struct {
	Pool    string
	Message string
	Err     error
}

func (e *SelectionError) Error() string {
	if e.Pool == "" {
		return e.Message
	}
	return fmt.Sprintf("%s pool: %s", e.Pool, e.Message)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

// DefaultServiceMessage is shown when the service gives no usable message
const DefaultServiceMessage = "Comparison failed"

// ServiceError is a non-success response of the comparison service
type ServiceError struct {
	// Status is the envelope status, or the HTTP status when no envelope was decoded
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultServiceMessage
	}
	if e.Status == 0 {
		return msg
	}
	return fmt.Sprintf("%s (status %d)", msg, e.Status)
}

// UserMessage returns the message to surface in a notification
func UserMessage(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Message != "" {
			return svcErr.Message
		}
		return DefaultServiceMessage
	}
	var selErr *SelectionError
	if errors.As(err, &selErr) {
		return selErr.Message
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Your session has expired, please sign in again"
	case errors.Is(err, ErrSelectExactlyTwo):
		return "Please select exactly 2 documents to compare"
	}
	return DefaultServiceMessage
}
