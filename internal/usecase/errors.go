package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the addressed record or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a create or rename collides with an existing record.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned when a request is missing fields or carries invalid values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLastAdmin is returned when a change would leave the users table without an admin.
	ErrLastAdmin = fmt.Errorf("%w: at least one admin account must remain", ErrConflict)

	// ErrInvalidCredentials is returned for an unknown user and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
