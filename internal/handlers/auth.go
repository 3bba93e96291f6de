package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/ai-textbook/backend/internal/auth"
	"github.com/ai-textbook/backend/internal/middleware"
	"github.com/ai-textbook/backend/internal/repo"
)

// loginFailedMessage is deliberately identical for unknown users and wrong
// passwords so responses never reveal whether an account exists.
const loginFailedMessage = "incorrect username or password"

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users  *repo.UserRepo
	Hasher *auth.PasswordHasher
	Tokens *auth.TokenService
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration
}

// ==========================
// Signup (JSON body; password stored as bcrypt hash, never echoed)
// ==========================
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username           string `json:"username"`
		Email              string `json:"email"`
		Password           string `json:"password"`
		SoftwareBackground string `json:"software_background"`
		HardwareBackground string `json:"hardware_background"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if n := len(input.Username); n < 3 || n > 50 {
		fields["username"] = "must be 3-50 characters"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if input.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	// Pre-checks give friendly errors (email first, matching the signup form),
	// but the unique constraints below remain the real guard against races.
	if _, err := h.Users.GetByEmail(r.Context(), input.Email); err == nil {
		JSONError(w, "Email already registered", http.StatusBadRequest)
		return
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		slog.Error("signup: email lookup failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if _, err := h.Users.GetByUsername(r.Context(), input.Username); err == nil {
		JSONError(w, "Username already registered", http.StatusBadRequest)
		return
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		slog.Error("signup: username lookup failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	hash, err := h.Hasher.Hash(input.Password)
	if err != nil {
		slog.Error("signup: hash password failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Create(r.Context(), input.Username, input.Email, hash,
		input.SoftwareBackground, input.HardwareBackground)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail):
			JSONError(w, "Email already registered", http.StatusBadRequest)
		case errors.Is(err, repo.ErrDuplicateUsername):
			JSONError(w, "Username already registered", http.StatusBadRequest)
		default:
			slog.Error("signup: create user failed", "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// ==========================
// Login (form-encoded username/password; issues a bearer token)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		JSONError(w, "invalid form body", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.Users.GetByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, repo.ErrUserNotFound) {
			slog.Error("login: user lookup failed", "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		loginFailed(w)
		return
	}

	if !h.Hasher.Verify(password, user.PasswordHash) {
		loginFailed(w)
		return
	}

	token, err := h.Tokens.Issue(user.Username, h.TokenTTL)
	if err != nil {
		slog.Error("login: issue token failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func loginFailed(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	JSONError(w, loginFailedMessage, http.StatusUnauthorized)
}

// ==========================
// Me (current user per the live store, not the token snapshot)
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
