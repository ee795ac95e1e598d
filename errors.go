package duosite

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in account.
	ErrUnauthenticated = errors.New("duosite: sign in required")
	// ErrForbidden is returned when the caller is not in the admin set.
	ErrForbidden = errors.New("duosite: admin privileges required")
	// ErrInvalidCredentials is returned by SignIn for an unknown email or a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("duosite: invalid email or password")
)

// ValidationError reports bad input detected before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
