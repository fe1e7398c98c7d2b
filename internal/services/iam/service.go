// Package iam centralizes identity resolution, session lifecycle, and user
// management. Authorization decisions themselves are pure functions in the
// auth package; this service loads the state those functions need and
// enforces their verdicts.
package iam

import (
	"context"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
)

// Service provides identity and user management operations.
type Service interface {
	// AuthenticateToken resolves a session bearer token to a principal.
	//
	// Returns:
	//   - (principal, nil): valid session
	//   - (nil, nil): no, unknown, expired, or revoked credentials
	//   - (nil, error): store failure; callers must treat as unauthenticated
	AuthenticateToken(ctx context.Context, token string) (*auth.Principal, error)

	// Login verifies email+password and mints a session. Returns the user and
	// the raw bearer token; only the token's hash is persisted.
	Login(ctx context.Context, email, password string) (*models.User, string, error)

	// Logout revokes a session and drops it from the principal cache.
	Logout(ctx context.Context, sessionID string) error

	// Impersonate mints a session for an arbitrary existing user without
	// credentials. Demo tooling only; the server mounts it solely in demo mode.
	Impersonate(ctx context.Context, userID string) (*models.User, string, error)

	// CreateUser creates a user subject to the role hierarchy:
	// unauthenticated callers always produce a USER regardless of the
	// requested role, ADMIN may only create USER, DEVELOPER may create any
	// role. Name and password are required; a duplicate email conflicts.
	CreateUser(ctx context.Context, actor *auth.Principal, name, email, password string, role models.Role) (*models.User, error)

	// DeleteUser removes a user subject to auth.CanManageUsers on the
	// target's role.
	DeleteUser(ctx context.Context, actor *auth.Principal, userID string) error

	// UpdateUserRole changes a user's role. ADMIN is limited to assigning
	// USER and may not touch a DEVELOPER; USER is forbidden entirely.
	UpdateUserRole(ctx context.Context, actor *auth.Principal, userID string, role models.Role) error

	// ChangePassword rehashes and stores a new password for the target user.
	// Allowed for the user themselves or a privileged actor.
	ChangePassword(ctx context.Context, actor *auth.Principal, userID, newPassword string) error

	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}
