package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
	"github.com/crewboard/boardapi/internal/repository"
)

const (
	// principalCacheSize bounds the token→principal cache.
	principalCacheSize = 1024

	// principalCacheTTL keeps authentication hot without letting revocations
	// or role changes stay visible for long.
	principalCacheTTL = 30 * time.Second
)

// iamService implements the Service interface.
type iamService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository

	sessionTTL time.Duration

	// principalCache maps token hash → resolved principal for the request
	// path. Entries expire quickly and are purged on logout.
	principalCache *expirable.LRU[string, *auth.Principal]
}

// Dependencies contains all collaborators for service construction.
type Dependencies struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
}

// NewService creates the IAM service. sessionTTL of zero falls back to
// auth.DefaultSessionTTL.
func NewService(deps Dependencies, sessionTTL time.Duration) Service {
	if sessionTTL <= 0 {
		sessionTTL = auth.DefaultSessionTTL
	}
	return &iamService{
		users:          deps.Users,
		sessions:       deps.Sessions,
		sessionTTL:     sessionTTL,
		principalCache: expirable.NewLRU[string, *auth.Principal](principalCacheSize, nil, principalCacheTTL),
	}
}

// AuthenticateToken resolves a bearer token to a principal.
// Missing, unknown, expired, and revoked tokens all resolve to nil so the
// caller denies privileged actions instead of failing the request.
func (s *iamService) AuthenticateToken(ctx context.Context, token string) (*auth.Principal, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := auth.HashSessionToken(token)
	if principal, ok := s.principalCache.Get(tokenHash); ok {
		return principal, nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if err := auth.ValidateSession(session.ExpiresAt, session.Revoked); err != nil {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Session outlived its user.
			return nil, nil
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	principal := &auth.Principal{
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		SessionID: session.ID,
	}
	s.principalCache.Add(tokenHash, principal)

	// Best effort; authentication must not fail on a bookkeeping write.
	if err := s.sessions.UpdateLastUsed(ctx, session.ID); err != nil {
		log.Printf("WARNING: failed to update session last_used: %v", err)
	}

	return principal, nil
}

// Login verifies credentials and mints a session.
func (s *iamService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("email and password are required: %w", auth.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid credentials: %w", auth.ErrNotAuthenticated)
		}
		return nil, "", fmt.Errorf("login lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", auth.ErrNotAuthenticated)
	}

	token, err := s.mintSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the session and purges its cache entries.
func (s *iamService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	for _, key := range s.principalCache.Keys() {
		if principal, ok := s.principalCache.Peek(key); ok && principal.SessionID == sessionID {
			s.principalCache.Remove(key)
		}
	}
	return nil
}

// Impersonate mints a session for an existing user. Only an existence check
// guards this path, which is why the route is demo-mode only.
func (s *iamService) Impersonate(ctx context.Context, userID string) (*models.User, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("impersonate: %w", err)
	}
	token, err := s.mintSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *iamService) mintSession(ctx context.Context, userID string) (string, error) {
	token, tokenHash, err := auth.GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("mint session: %w", err)
	}
	now := time.Now()
	session := &models.Session{
		UserID:     userID,
		TokenHash:  tokenHash,
		ExpiresAt:  now.Add(s.sessionTTL),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("mint session: %w", err)
	}
	return token, nil
}

// CreateUser creates a user subject to the role hierarchy.
func (s *iamService) CreateUser(ctx context.Context, actor *auth.Principal, name, email, password string, role models.Role) (*models.User, error) {
	if name == "" || password == "" {
		return nil, fmt.Errorf("name and password are required: %w", auth.ErrInvalidInput)
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, auth.ErrInvalidInput)
	}

	switch {
	case actor == nil:
		// Self-signup: whatever was requested, the stored role is USER.
		role = models.RoleUser
	case !auth.CanManageUsers(actor.Role, nil):
		return nil, fmt.Errorf("create user: %w", auth.ErrNotAuthorized)
	case !auth.CanSetRole(actor.Role, role):
		return nil, fmt.Errorf("create user with role %s: %w", role, auth.ErrNotAuthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	}
	if email != "" {
		user.Email = &email
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user after checking the actor against the target's role.
func (s *iamService) DeleteUser(ctx context.Context, actor *auth.Principal, userID string) error {
	if actor == nil {
		return fmt.Errorf("delete user: %w", auth.ErrNotAuthenticated)
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Target gone: still require a privileged actor before leaking
			// existence via NotFound.
			if !auth.IsPrivileged(actor.Role) {
				return fmt.Errorf("delete user: %w", auth.ErrNotAuthorized)
			}
			return err
		}
		return fmt.Errorf("delete user lookup: %w", err)
	}

	if !auth.CanManageUsers(actor.Role, &target.Role) {
		return fmt.Errorf("delete %s user: %w", target.Role, auth.ErrNotAuthorized)
	}
	return s.users.Delete(ctx, userID)
}

// UpdateUserRole changes a user's role subject to the hierarchy: the actor
// must be able to manage the target AND assign the new role. An ADMIN can
// therefore neither promote anyone past USER nor demote a DEVELOPER.
func (s *iamService) UpdateUserRole(ctx context.Context, actor *auth.Principal, userID string, role models.Role) error {
	if actor == nil {
		return fmt.Errorf("update role: %w", auth.ErrNotAuthenticated)
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, auth.ErrInvalidInput)
	}
	if !auth.CanSetRole(actor.Role, role) {
		return fmt.Errorf("assign role %s: %w", role, auth.ErrNotAuthorized)
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("update role lookup: %w", err)
	}
	if !auth.CanManageUsers(actor.Role, &target.Role) {
		return fmt.Errorf("modify %s user: %w", target.Role, auth.ErrNotAuthorized)
	}

	return s.users.UpdateRole(ctx, userID, role)
}

// ChangePassword rehashes and stores a new password.
func (s *iamService) ChangePassword(ctx context.Context, actor *auth.Principal, userID, newPassword string) error {
	if actor == nil {
		return fmt.Errorf("change password: %w", auth.ErrNotAuthenticated)
	}
	if newPassword == "" {
		return fmt.Errorf("password is required: %w", auth.ErrInvalidInput)
	}
	if actor.UserID != userID && !auth.IsPrivileged(actor.Role) {
		return fmt.Errorf("change password: %w", auth.ErrNotAuthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.SetPasswordHash(ctx, userID, string(hash))
}

func (s *iamService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *iamService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
