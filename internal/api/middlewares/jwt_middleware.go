package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/auth"
	"github.com/markdave123-py/counsel/internal/models"
)

// UserLookup loads the account a token names. core.DbClient satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// JWTMiddleware validates the Authorization header, reloads the account and attaches
// the claims to the request context. A deactivated or deleted account is rejected and
// the role is taken from the account, so demotions apply before the token expires.
func JWTMiddleware(tokens *auth.TokenService, users UserLookup, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or invalid token", "unauthorized")
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token", "unauthorized")
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				log.Errorw("token user lookup failed", "user_id", claims.UserID, "err", err)
				writeError(w, http.StatusInternalServerError, "internal server error", "internal_error")
				return
			}
			if user == nil || !user.IsActive {
				writeError(w, http.StatusUnauthorized, "account disabled or removed", "unauthorized")
				return
			}
			claims.Role = user.Role

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects authenticated callers whose token does not carry one of roles.
// It must run after JWTMiddleware.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.FromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "missing or invalid token", "unauthorized")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient permissions", "forbidden")
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
