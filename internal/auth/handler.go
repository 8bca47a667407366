package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redmonkez12/signup-api/internal/httputil"
	"github.com/redmonkez12/signup-api/internal/logging"
	"github.com/redmonkez12/signup-api/internal/user"
)

const (
	signupPendingMessage  = "Account created successfully, please verify your email."
	userVerifiedMessage   = "User verified successfully"
	loginSucceededMessage = "Logged in successfully"
	resendMessage         = "If your email is registered and not verified, a new verification link has been sent."
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse represents an error response
type ErrorResponse = httputil.ErrorResponse

// MessageResponse represents a message response with an optional payload
type MessageResponse = httputil.MessageResponse

// UserResponse represents a message response carrying a user view
type UserResponse struct {
	Message string    `json:"message"`
	Data    user.View `json:"data"`
}

// Signup handles account creation
// @Summary      Sign up
// @Description  Create an unconfirmed account. A verification link is emailed to the address given.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup details"
// @Success      201 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email or username already exists"
// @Failure      502 {object} ErrorResponse "Account created but verification email failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username, "email": user.NormalizeEmail(req.Email)})

	newUser, err := h.service.Signup(r.Context(), req)
	if err != nil {
		var validationErr *ValidationError
		var dispatchErr *DispatchError
		switch {
		case errors.As(err, &validationErr):
			logger.Warn("signup failed: validation error", "field", validationErr.Field, "error", err.Error())
			respondError(w, validationErr.Message, httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			respondError(w, "Email Already Exist. Please Login", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("signup failed: username already exists")
			respondError(w, "Username Already Exist. Please Login", httputil.CodeUsernameAlreadyExists, http.StatusConflict)
		case errors.As(err, &dispatchErr):
			logger.Error("signup succeeded but verification email failed", "user_id", newUser.ID, "error", dispatchErr.Err.Error())
			respondError(w, "Account created but the verification email could not be sent. Please request a new one.",
				httputil.CodeVerificationEmailFailed, http.StatusBadGateway)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up successfully", "user_id", newUser.ID)

	httputil.RespondMessage(w, signupPendingMessage, nil, http.StatusCreated)
}

// VerifyEmail handles email confirmation links
// @Summary      Verify email address
// @Description  Confirm the account named by the token from the verification email
// @Tags         auth
// @Produce      json
// @Param        confirmationToken path string true "Confirmation token"
// @Success      201 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Invalid or expired token"
// @Failure      409 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/confirmation/{confirmationToken} [get]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "confirmationToken")

	confirmed, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrConfirmationTokenExpired):
			logger.Warn("email verification failed: token expired")
			respondError(w, "Verification link has expired. Please request a new one.", httputil.CodeConfirmationExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidConfirmationToken):
			logger.Warn("email verification failed: invalid token")
			respondError(w, "Invalid verification token.", httputil.CodeInvalidConfirmation, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("email verification failed: user not found")
			respondError(w, "User not found", httputil.CodeUserNotFound, http.StatusConflict)
		default:
			logger.Error("email verification failed: internal error", "error", err.Error())
			respondError(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("email verified successfully", "user_id", confirmed.ID)

	httputil.RespondJSON(w, UserResponse{Message: userVerifiedMessage, Data: confirmed.View()}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with an email or username and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Missing or invalid credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	loggedIn, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			logger.Warn("login failed: missing credentials")
			respondError(w, "Please provide email or username and password", httputil.CodeMissingCredentials, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusBadRequest)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in successfully", "user_id", loggedIn.ID)

	httputil.RespondJSON(w, UserResponse{Message: loginSucceededMessage, Data: loggedIn.View()}, http.StatusOK)
}

// ResendVerification handles resending the verification email
// @Summary      Resend verification email
// @Description  Send a new verification link. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendVerificationRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Router       /api/confirmation/resend [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if email := req.normalized(); email != "" {
		_ = h.service.ResendVerification(r.Context(), email)
	}

	httputil.RespondMessage(w, resendMessage, nil, http.StatusOK)
}

// Me returns the account behind the session token
// @Summary      Current user
// @Description  Return the account the bearer token was issued to
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.View
// @Failure      401 {object} ErrorResponse "Missing or invalid token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	current, err := h.service.CurrentUser(r.Context(), claims)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("token refers to a missing user", "user_id", claims.UserID)
			respondError(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		respondError(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, current.View(), http.StatusOK)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
