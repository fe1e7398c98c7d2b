package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/crewboard/boardapi/internal/auth"
)

// identityResolver is the slice of the IAM service this middleware needs.
type identityResolver interface {
	AuthenticateToken(ctx context.Context, token string) (*auth.Principal, error)
}

// SessionAuth resolves the session cookie to a principal and stores it in
// the request context. Requests without a valid session pass through
// unauthenticated; every handler denies privileged operations on a nil
// principal, so there is nothing to reject here.
func SessionAuth(resolver identityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.AuthenticateToken(r.Context(), cookie.Value)
			if err != nil {
				// Store failure: treat as unauthenticated rather than 500.
				log.Printf("WARNING: session authentication failed: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
