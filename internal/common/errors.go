// Package common holds the error taxonomy shared by storage, auth, the
// aggregator and the HTTP layer.
package common

import (
	"errors"
	"fmt"
)

var (
	// storage errors
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUser      = errors.New("duplicate user")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// auth errors
	ErrUsernameTaken      = fmt.Errorf("username already taken: %w", ErrDuplicateUser)
	ErrInvalidCredentials = errors.New("invalid username or password")

	// input errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidDateFormat = errors.New("invalid date format")
)
