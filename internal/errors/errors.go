package errors

import (
	"errors"
	"fmt"
)

// This package defines a centralized set of sentinel errors for the application.
// Services return these (usually wrapped with context via %w) and the API layer
// uses errors.Is() to map them to HTTP responses and user-visible notifications.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrInternal signifies an unexpected error on the server.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")

	// ErrNotInitialized is returned when the model session is used before a
	// successful initialization (or after it was closed).
	ErrNotInitialized = errors.New("model session not initialized")

	// ErrBusy is returned when a single-flight operation (transcription) is
	// already running. It wraps ErrConflict so the API maps it to 409.
	ErrBusy = fmt.Errorf("%w: operation already in progress", ErrConflict)

	// ErrInvalidState is returned by state machines (the recorder) when an
	// operation is not allowed in the current state.
	ErrInvalidState = fmt.Errorf("%w: invalid state for operation", ErrConflict)

	// ErrVoiceUnavailable signifies that no speech-synthesis voice data exists
	// for the requested locale.
	ErrVoiceUnavailable = errors.New("voice data unavailable")
)
