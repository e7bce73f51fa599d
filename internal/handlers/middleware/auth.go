// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/pkg/logger"
)

type claimsKey struct{}

// WithClaims stores the authenticated identity on ctx
func WithClaims(ctx context.Context, claims *ports.Claims) context.Context {
	ctx = context.WithValue(ctx, logger.ContextKeyUserID, claims.UserID)
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the identity set by Authenticate
func ClaimsFromContext(ctx context.Context) (*ports.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*ports.Claims)
	return claims, ok && claims != nil
}

// Authenticate requires a valid, unrevoked bearer token
func Authenticate(auth ports.AuthService, l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidCredentials) {
					l.ErrorContext(r.Context(), "token verification failed",
						slog.String("error", err.Error()))
					writeError(w, http.StatusInternalServerError, "internal", "Internal Server Error")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects authenticated callers lacking role
func RequireRole(role domain.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
