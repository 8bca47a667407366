package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/signup-api/internal/auth"
	"github.com/redmonkez12/signup-api/internal/config"
	"github.com/redmonkez12/signup-api/internal/logging"
	"github.com/redmonkez12/signup-api/internal/user"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func (s *memStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = user.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return user.ErrDuplicateUsername
		}
	}
	u.ID = uuid.New()
	stored := *u
	s.users[u.Username] = &stored
	return nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.NormalizeEmail(email) {
			out := *u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		out := *u
		return &out, nil
	}
	return nil, user.ErrNotFound
}

func (s *memStore) MarkConfirmed(ctx context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.IsConfirmed = true
	out := *u
	return &out, nil
}

type captureMailer struct {
	tokens []string
}

func (m *captureMailer) SendVerification(ctx context.Context, toEmail, username, token string) error {
	m.tokens = append(m.tokens, token)
	return nil
}

func newTestRouter(t *testing.T, env string) (http.Handler, *captureMailer) {
	t.Helper()

	cfg := &config.Config{Server: config.ServerConfig{Env: env, TrustedOrigins: []string{"http://localhost:3000"}}}
	logger := logging.NewLoggerWithWriter(io.Discard, false)

	issuer, err := auth.NewJWTIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)
	codec, err := auth.NewConfirmationCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	mailer := &captureMailer{}
	service := auth.NewService(&memStore{users: map[string]*user.User{}}, auth.BcryptHasher{Cost: bcrypt.MinCost}, issuer, codec, mailer, logger)

	return NewRouter(cfg, auth.NewHandler(service, logger), auth.NewMiddleware(issuer), logger), mailer
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, "prod")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"api is running"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestRouter_SwaggerOnlyInDevelopment(t *testing.T) {
	prod, _ := newTestRouter(t, "prod")
	rec := httptest.NewRecorder()
	prod.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	dev, _ := newTestRouter(t, "dev")
	rec = httptest.NewRecorder()
	dev.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SignupConfirmLogin(t *testing.T) {
	router, mailer := newTestRouter(t, "prod")

	post := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))
		return rec
	}

	rec := post("/api/signup", map[string]string{
		"firstName": "Alice",
		"lastName":  "Liddell",
		"username":  "alice",
		"email":     "A@X.com",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, mailer.tokens, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/confirmation/"+mailer.tokens[0], nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isConfirmed":true`)

	rec = post("/api/login", map[string]string{"emailOrUsername": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Data.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, "prod")

	req := httptest.NewRequest(http.MethodOptions, "/api/signup", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders_NoStoreOnAPI(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'self'")
}
