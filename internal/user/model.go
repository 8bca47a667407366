package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	IsConfirmed  bool      `json:"isConfirmed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Token is the session token minted for this request. It is never persisted.
	Token string `json:"-"`
}

// View is the public projection of a user returned by the API.
type View struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsConfirmed bool      `json:"isConfirmed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Token       string    `json:"token,omitempty"`
}

// View projects u without its password hash.
func (u *User) View() View {
	return View{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		Email:       u.Email,
		IsConfirmed: u.IsConfirmed,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Token:       u.Token,
	}
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// prepare fills server-side fields before an insert.
func prepare(u *User) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	u.IsConfirmed = false
	u.CreatedAt = now
	u.UpdatedAt = now
}
