package auth

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("email or username and password are required")
	ErrInvalidCredentials = errors.New("invalid email/username or password")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")

	ErrInvalidConfirmationToken = errors.New("invalid confirmation token")
	ErrConfirmationTokenExpired = errors.New("confirmation token has expired")
)

// ValidationError reports the first signup field that failed the schema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DispatchError means the account was created but the verification email
// could not be delivered.
type DispatchError struct {
	Email string
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("verification email to %s failed: %v", e.Email, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
