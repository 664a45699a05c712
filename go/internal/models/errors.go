package models

import (
	"errors"
	"fmt"
)

// ErrMissingIdentifier is returned when an update or delete is attempted
// with an entity that has no uuid
var ErrMissingIdentifier = errors.New("missing identifier")

// MissingIdentifierError reports which collection an id-less write targeted
type MissingIdentifierError struct {
	Collection string
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collection, ErrMissingIdentifier)
}

func (e *MissingIdentifierError) Unwrap() error {
	return ErrMissingIdentifier
}

// RequireID returns a MissingIdentifierError when id is empty
func RequireID(collection, id string) error {
	if id == "" {
		return &MissingIdentifierError{Collection: collection}
	}
	return nil
}

// ErrValidation marks writes rejected before they reach the store
var ErrValidation = errors.New("validation failed")
