package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// Store persists user records. Implementations enforce uniqueness of email
// and username atomically at insert time and report the colliding field with
// ErrDuplicateEmail or ErrDuplicateUsername.
type Store interface {
	// Create inserts u, assigning its ID and timestamps.
	// The email is lower-cased and the confirmation flag starts false.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// MarkConfirmed sets the confirmation flag of the user with the given
	// username and returns the updated record. Confirming twice is a no-op.
	MarkConfirmed(ctx context.Context, username string) (*User, error)
}
