package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal
var (
	// Session errors
	ErrMissingCredential = errors.New("Access token not found.")
	ErrNoRefreshToken    = errors.New("refresh token not found")
	ErrSessionEnded      = errors.New("session ended")

	// Transport errors
	ErrInvalidBaseURL   = errors.New("invalid backend base url")
	ErrEmptyResponse    = errors.New("empty response body")
	ErrMissingAPIKey    = errors.New("api key is required")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrUnknownService   = errors.New("unknown playground service")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
