package errors

import (
	"errors"
	"fmt"
)

// Common error types for the adapter
var (
	// Connection errors
	ErrConnection = errors.New("connection failed")

	// Authentication errors
	ErrAuthHandshake    = errors.New("qr handshake failed")
	ErrInvalidSessionID = errors.New("sessionId required")
	ErrSessionNotFound  = errors.New("session not found")

	// Relay errors
	ErrDelivery = errors.New("webhook delivery failed")

	// Storage errors
	ErrStorage  = errors.New("credential store unreadable")
	ErrNotFound = errors.New("not found")
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
