package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCycle              = errors.New("group containment would create a cycle")
	ErrInvalidPoint       = errors.New("invalid point")
	ErrUnpairedCorner     = errors.New("origin and opposite must be given together")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ConstraintError reports a uniqueness clash detected by storage.
type ConstraintError struct {
	Entity string
	Field  string
	Value  string
	Err    error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s %s %q is already in use.", e.Entity, e.Field, e.Value)
}

func (e *ConstraintError) Unwrap() error { return e.Err }
