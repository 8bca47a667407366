// Package client is a Go client for the signup API. It mirrors what a browser
// frontend does: sign up, log in and keep the logged-in user in a local session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redmonkez12/signup-api/internal/auth"
	"github.com/redmonkez12/signup-api/internal/httputil"
	"github.com/redmonkez12/signup-api/internal/user"
)

const defaultTimeout = 15 * time.Second

// ErrNotLoggedIn is returned when no session is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Client talks to the API rooted at baseURL, e.g. http://localhost:4000.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionStore
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, session SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signup creates an account and returns the server's confirmation message.
func (c *Client) Signup(ctx context.Context, req auth.SignupRequest) (string, error) {
	var resp httputil.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/signup", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login authenticates and stores the returned user, token included, in the session.
func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (*user.View, error) {
	var resp auth.UserResponse
	req := auth.LoginRequest{EmailOrUsername: emailOrUsername, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, err
	}

	if err := c.session.Save(&resp.Data); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.Data, nil
}

// Logout forgets the stored session. The server keeps no session state.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// CurrentUser returns the stored user without contacting the API.
func (c *Client) CurrentUser() (*user.View, error) {
	return c.session.Load()
}

// Me asks the API who the stored session token belongs to.
func (c *Client) Me(ctx context.Context) (*user.View, error) {
	current, err := c.session.Load()
	if err != nil {
		return nil, err
	}

	var view user.View
	if err := c.doWithToken(ctx, http.MethodGet, "/api/me", current.Token, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ResendVerification asks the API to email a new verification link.
func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	var resp httputil.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/confirmation/resend", auth.ResendVerificationRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doWithToken(ctx, method, path, "", body, out)
}

func (c *Client) doWithToken(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
