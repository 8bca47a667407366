package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redmonkez12/signup-api/internal/logging"
	"github.com/redmonkez12/signup-api/internal/user"
)

// VerificationMailer delivers email verification links.
type VerificationMailer interface {
	SendVerification(ctx context.Context, toEmail, username, confirmationToken string) error
}

// Service handles signup, email verification and login.
type Service struct {
	users  user.Store
	hasher PasswordHasher
	tokens TokenIssuer
	codec  *ConfirmationCodec
	mailer VerificationMailer
	logger *logging.Logger
	decoy  string
}

func NewService(
	users user.Store,
	hasher PasswordHasher,
	tokens TokenIssuer,
	codec *ConfirmationCodec,
	mailer VerificationMailer,
	logger *logging.Logger,
) *Service {
	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		codec:  codec,
		mailer: mailer,
		logger: logger,
	}

	// Compared against when the identifier is unknown so that both login
	// failure paths pay for one hash comparison.
	if decoy, err := hasher.Hash("decoy-password-for-unknown-users"); err == nil {
		s.decoy = decoy
	} else {
		logger.Warn("failed to prepare decoy password hash", "error", err)
	}

	return s
}

// Signup creates an unconfirmed account and emails its verification link.
//
// The record is committed before the email is sent. If delivery fails the
// created user is still returned together with a *DispatchError.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*user.User, error) {
	req = req.Trimmed()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &user.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) || errors.Is(err, user.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(newUser.ID, newUser.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	newUser.Token = token

	// The record exists now, so delivery must not be cut short by the client going away.
	mailCtx := context.WithoutCancel(ctx)
	if err := s.mailer.SendVerification(mailCtx, newUser.Email, newUser.Username, s.codec.Encode(newUser.Username)); err != nil {
		return newUser, &DispatchError{Email: newUser.Email, Err: err}
	}

	return newUser, nil
}

// VerifyEmail confirms the account named by a confirmation token.
// Confirming an already confirmed account returns it unchanged.
func (s *Service) VerifyEmail(ctx context.Context, confirmationToken string) (*user.User, error) {
	username, err := s.codec.Decode(confirmationToken)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.users.MarkConfirmed(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}

	return confirmed, nil
}

// Login authenticates by email or username and attaches a fresh session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*user.User, error) {
	identifier := strings.TrimSpace(req.EmailOrUsername)
	if identifier == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	var (
		existing *user.User
		err      error
	)
	if IsEmail(identifier) {
		existing, err = s.users.GetByEmail(ctx, identifier)
	} else {
		existing, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if s.decoy != "" {
				s.hasher.Verify(s.decoy, req.Password)
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existing.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(existing.ID, existing.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	existing.Token = token

	return existing, nil
}

// ResendVerification emails a new verification link to an unconfirmed account.
// Always returns nil to prevent email enumeration attacks.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	logger := logging.GetLoggerFromContext(ctx)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			logger.Warn("failed to get user for resend verification", "error", err)
		}
		return nil
	}

	if existing.IsConfirmed {
		return nil
	}

	mailCtx := context.WithoutCancel(ctx)
	if err := s.mailer.SendVerification(mailCtx, existing.Email, existing.Username, s.codec.Encode(existing.Username)); err != nil {
		logger.Warn("failed to resend verification email", "email", existing.Email, "error", err)
	}

	return nil
}

// CurrentUser returns the account a verified session token belongs to.
func (s *Service) CurrentUser(ctx context.Context, claims *TokenClaims) (*user.User, error) {
	existing, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if existing.ID.String() != claims.UserID {
		return nil, user.ErrNotFound
	}
	return existing, nil
}
