package users

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrConflict           = errors.New("user already exists")
	ErrAlreadyLinked      = errors.New("user already linked to an oauth identity")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Conflict fields.
const (
	FieldPhone    = "phone"
	FieldUsername = "username"
	FieldOAuth    = "oauth"
)

// ConflictError names the unique field that was already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func conflict(field string) error {
	return &ConflictError{Field: field}
}

// ConflictField returns the conflicting field for a conflict error, or "".
func ConflictField(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
