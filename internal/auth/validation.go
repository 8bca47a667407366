package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordLen = 72
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

	// emailShape decides whether a login identifier is an email or a username.
	emailShape = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)
)

// SignupRequest represents the signup request body
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// signupFieldOrder is the order fields are reported in.
var signupFieldOrder = []string{"firstName", "lastName", "username", "email", "password"}

// Trimmed returns a copy with surrounding whitespace removed from every
// field except the password.
func (r SignupRequest) Trimmed() SignupRequest {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// Validate checks the trimmed request against the signup schema and returns
// a *ValidationError for the first failing field. Whitespace-only names are
// rejected as blank.
func (r SignupRequest) Validate() error {
	r = r.Trimmed()
	err := validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Username,
			validation.Required,
			validation.Length(3, 30),
			validation.Match(usernamePattern).Error("may only contain letters, digits, '.', '_' and '-'"),
		),
		validation.Field(&r.Email,
			validation.Required,
			validation.Length(3, 254),
			is.Email,
			// login tells emails from usernames with emailShape; stored emails must match it
			validation.Match(emailShape).Error("must be a valid email address"),
		),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, field := range signupFieldOrder {
		if fe, ok := fieldErrs[field]; ok {
			return &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q %s", field, fe.Error()),
			}
		}
	}
	return err
}

// LoginRequest represents the login request body
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

// IsEmail reports whether identifier has the shape of an email address.
func IsEmail(identifier string) bool {
	return emailShape.MatchString(identifier)
}

// ResendVerificationRequest represents the resend verification email request
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

func (r ResendVerificationRequest) normalized() string {
	return strings.TrimSpace(r.Email)
}
