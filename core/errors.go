package core

import (
	"errors"
	"regexp"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned when a caller submits malformed input
// (empty prompt, oversize thread id, unknown priority).
var ErrInvalidInput = errors.New("invalid input")

// ErrQueueFull is returned when admission would exceed the configured
// cap on queued messages. Callers may retry after a delay.
var ErrQueueFull = errors.New("queue full")

// ErrInvalidTransition is returned when a state change is not in the
// allowed transition graph.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrNotCancellable is returned when cancel is attempted on a message
// that is no longer queued.
var ErrNotCancellable = errors.New("message is not cancellable")

// IsNotFoundError checks if an error is a "not found" error
// This function handles both the ErrNotFound sentinel error and legacy string-based errors
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	// Check for the sentinel error
	if errors.Is(err, ErrNotFound) {
		return true
	}
	// Check for legacy string-based errors for backward compatibility
	return containsNotFound(err.Error())
}

// containsNotFound checks if an error message contains "not found"
func containsNotFound(errMsg string) bool {
	// Use case-insensitive matching for various "not found" formats
	return len(errMsg) > 0 && (regexp.MustCompile(`(?i)not found`).MatchString(errMsg))
}
