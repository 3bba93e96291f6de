package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ai-textbook/backend/internal/auth"
	"github.com/ai-textbook/backend/internal/models"
	"github.com/ai-textbook/backend/internal/repo"
)

type ctxKey string

const userKey ctxKey = "current_user"

// GetUser returns the authenticated user stored by RequireAuth.
func GetUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// WithUser returns a context carrying user as the authenticated identity.
// Handler tests use this to bypass the full middleware chain.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// RequireAuth verifies the bearer token and re-resolves the subject against
// the users table, so handlers always see the current stored record rather
// than whatever was true when the token was minted. Every failure mode
// (missing header, malformed/forged/expired token, deleted user) produces
// the same 401 body; the specific cause only goes to the log.
func RequireAuth(tokens *auth.TokenService, users *repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				unauthenticated(w)
				return
			}

			subject, err := tokens.Verify(tokenStr)
			if err != nil {
				slog.Info("auth: token rejected",
					"reason", err,
					"path", r.URL.Path)
				unauthenticated(w)
				return
			}

			user, err := users.GetByUsername(r.Context(), subject)
			if err != nil {
				if errors.Is(err, repo.ErrUserNotFound) {
					slog.Info("auth: token subject no longer exists", "subject", subject)
					unauthenticated(w)
					return
				}
				slog.Error("auth: user lookup failed", "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// unauthenticated writes the single 401 shape used for every auth failure.
func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
}
