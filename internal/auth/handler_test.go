package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/signup-api/internal/httputil"
)

func newTestRouter(env *testEnv) http.Handler {
	h := NewHandler(env.service, nil)
	m := NewMiddleware(env.issuer)

	r := chi.NewRouter()
	r.Post("/api/signup", h.Signup)
	r.Post("/api/login", h.Login)
	r.Post("/api/confirmation/resend", h.ResendVerification)
	r.Get("/api/confirmation/{confirmationToken}", h.VerifyEmail)
	r.With(m.RequireAuth).Get("/api/me", h.Me)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandler_Signup(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp httputil.MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Account created successfully, please verify your email.", resp.Message)
	assert.Nil(t, resp.Data)
	assert.Len(t, env.mailer.calls(), 1)
}

func TestHandler_Signup_Errors(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	dupEmail := aliceSignup()
	dupEmail.Username = "alice2"
	dupUsername := aliceSignup()
	dupUsername.Email = "other@x.com"
	invalid := aliceSignup()
	invalid.Password = "short"

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"malformed body", "{", http.StatusBadRequest, httputil.CodeInvalidRequestBody, "invalid request body"},
		{"validation", invalid, http.StatusBadRequest, httputil.CodeValidationFailed, `"password"`},
		{"duplicate email", dupEmail, http.StatusConflict, httputil.CodeEmailAlreadyExists, "Email Already Exist. Please Login"},
		{"duplicate username", dupUsername, http.StatusConflict, httputil.CodeUsernameAlreadyExists, "Username Already Exist. Please Login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/signup", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.True(t, strings.HasPrefix(resp.Error, tt.wantError), resp.Error)
		})
	}

	assert.Equal(t, 1, env.store.count())
}

func TestHandler_Signup_DispatchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errSMTPDown
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, httputil.CodeVerificationEmailFailed, decodeError(t, rec).Code)
	assert.Equal(t, 1, env.store.count())
}

func TestHandler_VerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := env.mailer.calls()[0].token

	for i := 0; i < 2; i++ {
		rec = doJSON(t, router, http.MethodGet, "/api/confirmation/"+token, nil, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var raw map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
		assert.Equal(t, "User verified successfully", raw["message"])

		data, ok := raw["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", data["username"])
		assert.Equal(t, "a@x.com", data["email"])
		assert.Equal(t, true, data["isConfirmed"])
		assert.NotContains(t, data, "passwordHash")
		assert.NotContains(t, data, "password")
	}
}

func TestHandler_VerifyEmail_Errors(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodGet, "/api/confirmation/garbage", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidConfirmation, decodeError(t, rec).Code)

	rec = doJSON(t, router, http.MethodGet, "/api/confirmation/"+env.codec.Encode("ghost"), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httputil.CodeUserNotFound, decodeError(t, rec).Code)
}

func TestHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/login", LoginRequest{EmailOrUsername: "A@X.com", Password: "secret123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	var resp struct {
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Data["username"])
	assert.NotContains(t, resp.Data, "passwordHash")

	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)

	claims, err := env.issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, resp.Data["id"], claims.UserID)

	rec = doJSON(t, router, http.MethodGet, "/api/me", nil, http.Header{"Authorization": {"Bearer " + token}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestHandler_Login_UniformFailure(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/login", LoginRequest{EmailOrUsername: "alice", Password: "nope-nope"}, nil)
	unknownUser := doJSON(t, router, http.MethodPost, "/api/login", LoginRequest{EmailOrUsername: "mallory", Password: "secret123"}, nil)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())

	missing := doJSON(t, router, http.MethodPost, "/api/login", LoginRequest{EmailOrUsername: "alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, httputil.CodeMissingCredentials, decodeError(t, missing).Code)
}

func TestHandler_ResendVerification(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", aliceSignup(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	known := doJSON(t, router, http.MethodPost, "/api/confirmation/resend", ResendVerificationRequest{Email: "a@x.com"}, nil)
	unknown := doJSON(t, router, http.MethodPost, "/api/confirmation/resend", ResendVerificationRequest{Email: "nobody@x.com"}, nil)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Len(t, env.mailer.calls(), 2)
}

func TestMiddleware_RequireAuth(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env)

	expiredIssuer, err := NewJWTIssuer([]byte("test-secret"), 2*time.Hour)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expired, err := expiredIssuer.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing", "", httputil.CodeMissingAuth},
		{"wrong scheme", "Basic abc", httputil.CodeInvalidAuthHeader},
		{"empty bearer", "Bearer ", httputil.CodeInvalidAuthHeader},
		{"garbage", "Bearer not-a-token", httputil.CodeInvalidToken},
		{"expired", "Bearer " + expired, httputil.CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			rec := doJSON(t, router, http.MethodGet, "/api/me", nil, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			assert.False(t, strings.Contains(rec.Body.String(), "alice"))
		})
	}
}
