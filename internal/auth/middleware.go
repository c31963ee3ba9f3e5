package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie holding the signed token.
const CookieName = "token"

type contextKey int

const claimsKey contextKey = iota

// FromContext extracts the verified claims from the request context.
// Returns nil outside the Middleware chain.
func FromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey).(*Claims); ok {
		return c
	}
	return nil
}

// WithClaims returns a context carrying the given claims. Exposed for
// handler tests that bypass the middleware.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// TokenFromRequest extracts the session token from the Authorization
// header (preferred) or the session cookie. Returns "" when absent.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware verifies the session token on every request and stores the
// claims in the request context. Requests without a valid token get a
// 401 JSON error; verification is never retried or cached.
func Middleware(guard *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				denyJSON(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := guard.Verify(token)
			if err != nil {
				// Expired and malformed tokens are both denied; expired
				// ones are common and logged at a lower level.
				if errors.Is(err, ErrTokenExpired) {
					slog.Debug("Session token expired", "path", r.URL.Path)
				} else {
					slog.Warn("Session token rejected", "path", r.URL.Path, "error", err)
				}
				denyJSON(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole gates a route on role membership: the caller's verified
// roles must intersect the given set.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := FromContext(r.Context())
			if !Authorize(claims, roles) {
				denyJSON(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionCookie builds the HTTP-only cookie carrying a freshly issued
// token.
func SessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds an expired cookie that removes the session.
func ClearSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func denyJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
