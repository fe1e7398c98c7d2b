package auth

import (
	"context"

	"github.com/crewboard/boardapi/internal/db/models"
)

// Principal is the resolved identity of the current request.
type Principal struct {
	UserID    string
	Name      string
	Role      models.Role
	SessionID string
}

type principalContextKey struct{}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the principal, or nil for unauthenticated
// requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
