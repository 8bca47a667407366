package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/signup-api/internal/database"
)

const pgUniqueViolation = "23505"

// BunStore keeps users in PostgreSQL through Bun.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) Create(ctx context.Context, u *User) error {
	prepare(u)
	row := toDBUser(u)

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if dup := pgDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *BunStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, "email", NormalizeEmail(email))
}

func (s *BunStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *BunStore) MarkConfirmed(ctx context.Context, username string) (*User, error) {
	row := new(database.User)
	result, err := s.db.NewUpdate().
		Model(row).
		Set("is_confirmed = ?", true).
		Set("updated_at = ?", time.Now().UTC().Truncate(time.Millisecond)).
		Where("username = ?", username).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return fromDBUser(row), nil
}

func (s *BunStore) getBy(ctx context.Context, column, value string) (*User, error) {
	row := new(database.User)
	err := s.db.NewSelect().
		Model(row).
		Where("? = ?", bun.Ident(column), value).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return fromDBUser(row), nil
}

// pgDuplicate maps a unique violation to the colliding field.
func pgDuplicate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pgUniqueViolation {
		return nil
	}
	switch {
	case pqErr.Constraint == database.UsersEmailConstraint, strings.Contains(pqErr.Detail, "(email)"):
		return ErrDuplicateEmail
	case pqErr.Constraint == database.UsersUsernameConstraint, strings.Contains(pqErr.Detail, "(username)"):
		return ErrDuplicateUsername
	}
	return nil
}

func toDBUser(u *User) *database.User {
	return &database.User{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsConfirmed:  u.IsConfirmed,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromDBUser(row *database.User) *User {
	return &User{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsConfirmed:  row.IsConfirmed,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}
