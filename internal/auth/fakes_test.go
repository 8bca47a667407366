package auth

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/signup-api/internal/logging"
	"github.com/redmonkez12/signup-api/internal/user"
)

var testConfirmationKey = []byte("0123456789abcdef0123456789abcdef")

// memStore is an in-memory user.Store with the same uniqueness guarantees
// as the real backends.
type memStore struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*user.User
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
	failWith   error
}

func newMemStore() *memStore {
	return &memStore{
		byID:       make(map[uuid.UUID]*user.User),
		byEmail:    make(map[string]uuid.UUID),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *memStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	email := user.NormalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return user.ErrDuplicateEmail
	}
	if _, ok := s.byUsername[u.Username]; ok {
		return user.ErrDuplicateUsername
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	u.ID = uuid.New()
	u.Email = email
	u.IsConfirmed = false
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	stored.Token = ""
	s.byID[u.ID] = &stored
	s.byEmail[email] = u.ID
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byEmail, user.NormalizeEmail(email))
}

func (s *memStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byUsername, username)
}

func (s *memStore) MarkConfirmed(ctx context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	stored := s.byID[id]
	if !stored.IsConfirmed {
		stored.IsConfirmed = true
		stored.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	out := *stored
	return &out, nil
}

func (s *memStore) lookup(index map[string]uuid.UUID, key string) (*user.User, error) {
	id, ok := index[key]
	if !ok {
		return nil, user.ErrNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type sentVerification struct {
	toEmail, username, token string
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentVerification
}

func (m *fakeMailer) SendVerification(ctx context.Context, toEmail, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentVerification{toEmail, username, token})
	return m.err
}

func (m *fakeMailer) calls() []sentVerification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentVerification(nil), m.sent...)
}

var errSMTPDown = errors.New("smtp: connection refused")

type testEnv struct {
	store   *memStore
	mailer  *fakeMailer
	issuer  *JWTIssuer
	codec   *ConfirmationCodec
	service *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer, err := NewJWTIssuer([]byte("test-secret"), 2*time.Hour)
	require.NoError(t, err)
	codec, err := NewConfirmationCodec(testConfirmationKey, 24*time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		store:  newMemStore(),
		mailer: &fakeMailer{},
		issuer: issuer,
		codec:  codec,
	}
	env.service = NewService(
		env.store,
		BcryptHasher{Cost: bcrypt.MinCost},
		issuer,
		codec,
		env.mailer,
		logging.NewLoggerWithWriter(io.Discard, false),
	)
	return env
}

func aliceSignup() SignupRequest {
	return SignupRequest{
		FirstName: "Alice",
		LastName:  "Liddell",
		Username:  "alice",
		Email:     "A@X.com",
		Password:  "secret123",
	}
}
