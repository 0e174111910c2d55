package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/flickvault/flickvault/models"
	"github.com/flickvault/flickvault/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const claimsKey contextKey = "sessionClaims"

// Session resolves the session cookie if one is present. A valid session
// lands in the request context and is re-issued so its expiry slides to
// last-use + window; an expired or malformed one is treated as absent, so
// the request proceeds anonymously.
func Session(sessions *service.SessionService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := sessions.Parse(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if fresh, err := sessions.Refresh(claims); err == nil {
				http.SetCookie(w, sessions.Cookie(fresh))
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page, preserving
// the originally requested path so login can send the user back.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login?returnUrl="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole implies RequireAuth, then denies without redirect when the
// session does not hold the role.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login?returnUrl="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
				return
			}
			for _, held := range claims.Roles {
				if held == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"access denied"}`))
		})
	}
}

// ClaimsFromContext returns the session claims resolved by Session.
func ClaimsFromContext(ctx context.Context) (*service.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.SessionClaims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// UsernameFromContext returns the authenticated username.
func UsernameFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Username, true
}

// IsAdmin reports whether the session holds the Admin role.
func IsAdmin(ctx context.Context) bool {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range claims.Roles {
		if r == models.RoleAdmin {
			return true
		}
	}
	return false
}
