package iam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
	"github.com/crewboard/boardapi/internal/repository"
)

// mockUserRepo is a func-field mock of repository.UserRepository.
type mockUserRepo struct {
	createFunc          func(ctx context.Context, user *models.User) error
	getByIDFunc         func(ctx context.Context, id string) (*models.User, error)
	getByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	listFunc            func(ctx context.Context) ([]models.User, error)
	updateRoleFunc      func(ctx context.Context, id string, role models.Role) error
	setPasswordHashFunc func(ctx context.Context, id, hash string) error
	deleteFunc          func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if m.updateRoleFunc != nil {
		return m.updateRoleFunc(ctx, id, role)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	if m.setPasswordHashFunc != nil {
		return m.setPasswordHashFunc(ctx, id, hash)
	}
	return errors.New("not implemented")
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return errors.New("not implemented")
}

// mockSessionRepo is a func-field mock of repository.SessionRepository.
type mockSessionRepo struct {
	createFunc         func(ctx context.Context, session *models.Session) error
	getByTokenHashFunc func(ctx context.Context, tokenHash string) (*models.Session, error)
	revokeFunc         func(ctx context.Context, id string) error
	updateLastUsedFunc func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, session)
	}
	return errors.New("not implemented")
}

func (m *mockSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	if m.getByTokenHashFunc != nil {
		return m.getByTokenHashFunc(ctx, tokenHash)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSessionRepo) Revoke(ctx context.Context, id string) error {
	if m.revokeFunc != nil {
		return m.revokeFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockSessionRepo) UpdateLastUsed(ctx context.Context, id string) error {
	if m.updateLastUsedFunc != nil {
		return m.updateLastUsedFunc(ctx, id)
	}
	return nil
}

func newTestService(users *mockUserRepo, sessions *mockSessionRepo) Service {
	return NewService(Dependencies{Users: users, Sessions: sessions}, time.Hour)
}

func principal(role models.Role) *auth.Principal {
	return &auth.Principal{UserID: "actor-id", Name: "actor", Role: role, SessionID: "sess-1"}
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthenticated signup forces USER role", func(t *testing.T) {
		var created *models.User
		users := &mockUserRepo{
			createFunc: func(ctx context.Context, user *models.User) error {
				created = user
				return nil
			},
		}
		svc := newTestService(users, &mockSessionRepo{})

		user, err := svc.CreateUser(ctx, nil, "Eve", "eve@example.com", "hunter22", models.RoleDeveloper)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Equal(t, models.RoleUser, created.Role)
	})

	t.Run("admin may create USER", func(t *testing.T) {
		users := &mockUserRepo{
			createFunc: func(ctx context.Context, user *models.User) error { return nil },
		}
		svc := newTestService(users, &mockSessionRepo{})

		user, err := svc.CreateUser(ctx, principal(models.RoleAdmin), "New", "", "pw123456", models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Nil(t, user.Email)
	})

	t.Run("admin cannot create DEVELOPER", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

		_, err := svc.CreateUser(ctx, principal(models.RoleAdmin), "New", "", "pw123456", models.RoleDeveloper)
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
	})

	t.Run("plain user cannot create anyone", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

		_, err := svc.CreateUser(ctx, principal(models.RoleUser), "New", "", "pw123456", models.RoleUser)
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
	})

	t.Run("duplicate email surfaces conflict", func(t *testing.T) {
		users := &mockUserRepo{
			createFunc: func(ctx context.Context, user *models.User) error {
				return repository.ErrConflict
			},
		}
		svc := newTestService(users, &mockSessionRepo{})

		_, err := svc.CreateUser(ctx, principal(models.RoleDeveloper), "Dup", "dup@example.com", "pw123456", models.RoleUser)
		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("missing name or password is invalid input", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

		_, err := svc.CreateUser(ctx, nil, "", "", "pw123456", "")
		assert.ErrorIs(t, err, auth.ErrInvalidInput)

		_, err = svc.CreateUser(ctx, nil, "Eve", "", "", "")
		assert.ErrorIs(t, err, auth.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	email := "dana@example.com"
	stored := &models.User{ID: "u1", Name: "Dana", Email: &email, Role: models.RoleDeveloper, PasswordHash: string(hash)}

	users := &mockUserRepo{
		getByEmailFunc: func(ctx context.Context, e string) (*models.User, error) {
			if e == email {
				return stored, nil
			}
			return nil, repository.ErrNotFound
		},
	}

	t.Run("valid credentials mint a session", func(t *testing.T) {
		var minted *models.Session
		sessions := &mockSessionRepo{
			createFunc: func(ctx context.Context, session *models.Session) error {
				minted = session
				return nil
			},
		}
		svc := newTestService(users, sessions)

		user, token, err := svc.Login(ctx, email, "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.NotEmpty(t, token)
		require.NotNil(t, minted)
		assert.Equal(t, auth.HashSessionToken(token), minted.TokenHash)
		assert.Equal(t, "u1", minted.UserID)
	})

	t.Run("wrong password is not authenticated", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})

		_, _, err := svc.Login(ctx, email, "wrong")
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("unknown email is not authenticated", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})

		_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})
}

func TestAuthenticateToken(t *testing.T) {
	ctx := context.Background()
	token, tokenHash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	user := &models.User{ID: "u1", Name: "Dana", Role: models.RoleDeveloper}

	makeSession := func(expiresAt time.Time, revoked bool) *mockSessionRepo {
		return &mockSessionRepo{
			getByTokenHashFunc: func(ctx context.Context, hash string) (*models.Session, error) {
				if hash != tokenHash {
					return nil, repository.ErrNotFound
				}
				return &models.Session{ID: "s1", UserID: "u1", TokenHash: hash, ExpiresAt: expiresAt, Revoked: revoked}, nil
			},
		}
	}
	users := &mockUserRepo{
		getByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == "u1" {
				return user, nil
			}
			return nil, repository.ErrNotFound
		},
	}

	t.Run("valid session resolves principal", func(t *testing.T) {
		svc := newTestService(users, makeSession(time.Now().Add(time.Hour), false))

		p, err := svc.AuthenticateToken(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "u1", p.UserID)
		assert.Equal(t, models.RoleDeveloper, p.Role)
		assert.Equal(t, "s1", p.SessionID)
	})

	t.Run("expired session resolves to nil", func(t *testing.T) {
		svc := newTestService(users, makeSession(time.Now().Add(-time.Minute), false))

		p, err := svc.AuthenticateToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("revoked session resolves to nil", func(t *testing.T) {
		svc := newTestService(users, makeSession(time.Now().Add(time.Hour), true))

		p, err := svc.AuthenticateToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("unknown token resolves to nil", func(t *testing.T) {
		svc := newTestService(users, makeSession(time.Now().Add(time.Hour), false))

		p, err := svc.AuthenticateToken(ctx, "deadbeef")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("empty token resolves to nil", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})

		p, err := svc.AuthenticateToken(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("store failure returns error", func(t *testing.T) {
		sessions := &mockSessionRepo{
			getByTokenHashFunc: func(ctx context.Context, hash string) (*models.Session, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := newTestService(users, sessions)

		p, err := svc.AuthenticateToken(ctx, token)
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	userWithRole := func(role models.Role) *mockUserRepo {
		return &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return &models.User{ID: id, Role: role}, nil
			},
			deleteFunc: func(ctx context.Context, id string) error { return nil },
		}
	}

	t.Run("developer deletes admin", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleAdmin), &mockSessionRepo{})
		assert.NoError(t, svc.DeleteUser(ctx, principal(models.RoleDeveloper), "target"))
	})

	t.Run("admin deletes plain user", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleUser), &mockSessionRepo{})
		assert.NoError(t, svc.DeleteUser(ctx, principal(models.RoleAdmin), "target"))
	})

	t.Run("admin cannot delete developer", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleDeveloper), &mockSessionRepo{})
		assert.ErrorIs(t, svc.DeleteUser(ctx, principal(models.RoleAdmin), "target"), auth.ErrNotAuthorized)
	})

	t.Run("plain user cannot delete anyone", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleUser), &mockSessionRepo{})
		assert.ErrorIs(t, svc.DeleteUser(ctx, principal(models.RoleUser), "target"), auth.ErrNotAuthorized)
	})

	t.Run("missing target stays authorization error for plain user", func(t *testing.T) {
		users := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return nil, repository.ErrNotFound
			},
		}
		svc := newTestService(users, &mockSessionRepo{})
		assert.ErrorIs(t, svc.DeleteUser(ctx, principal(models.RoleUser), "ghost"), auth.ErrNotAuthorized)
	})

	t.Run("missing target is not found for privileged actor", func(t *testing.T) {
		users := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return nil, repository.ErrNotFound
			},
		}
		svc := newTestService(users, &mockSessionRepo{})
		assert.ErrorIs(t, svc.DeleteUser(ctx, principal(models.RoleDeveloper), "ghost"), repository.ErrNotFound)
	})

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})
		assert.ErrorIs(t, svc.DeleteUser(ctx, nil, "target"), auth.ErrNotAuthenticated)
	})
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()

	userWithRole := func(role models.Role) *mockUserRepo {
		return &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return &models.User{ID: id, Role: role}, nil
			},
			updateRoleFunc: func(ctx context.Context, id string, role models.Role) error { return nil },
		}
	}

	t.Run("developer promotes user to admin", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleUser), &mockSessionRepo{})
		assert.NoError(t, svc.UpdateUserRole(ctx, principal(models.RoleDeveloper), "target", models.RoleAdmin))
	})

	t.Run("admin cannot promote past USER", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleUser), &mockSessionRepo{})
		assert.ErrorIs(t,
			svc.UpdateUserRole(ctx, principal(models.RoleAdmin), "target", models.RoleAdmin),
			auth.ErrNotAuthorized)
	})

	t.Run("admin cannot demote a developer", func(t *testing.T) {
		svc := newTestService(userWithRole(models.RoleDeveloper), &mockSessionRepo{})
		assert.ErrorIs(t,
			svc.UpdateUserRole(ctx, principal(models.RoleAdmin), "target", models.RoleUser),
			auth.ErrNotAuthorized)
	})

	t.Run("unknown role is invalid input", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})
		assert.ErrorIs(t,
			svc.UpdateUserRole(ctx, principal(models.RoleDeveloper), "target", models.Role("SUPERUSER")),
			auth.ErrInvalidInput)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		setPasswordHashFunc: func(ctx context.Context, id, hash string) error {
			// The stored value must be a hash, never the raw password.
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new password")))
			return nil
		},
	}

	t.Run("user changes own password", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})
		actor := principal(models.RoleUser)
		assert.NoError(t, svc.ChangePassword(ctx, actor, actor.UserID, "new password"))
	})

	t.Run("user cannot change someone else's password", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})
		assert.ErrorIs(t,
			svc.ChangePassword(ctx, principal(models.RoleUser), "other", "new password"),
			auth.ErrNotAuthorized)
	})

	t.Run("admin changes someone else's password", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})
		assert.NoError(t, svc.ChangePassword(ctx, principal(models.RoleAdmin), "other", "new password"))
	})

	t.Run("empty password is invalid input", func(t *testing.T) {
		svc := newTestService(users, &mockSessionRepo{})
		actor := principal(models.RoleUser)
		assert.ErrorIs(t, svc.ChangePassword(ctx, actor, actor.UserID, ""), auth.ErrInvalidInput)
	})
}

func TestLogoutPurgesCache(t *testing.T) {
	ctx := context.Background()
	token, tokenHash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	revoked := false
	sessions := &mockSessionRepo{
		getByTokenHashFunc: func(ctx context.Context, hash string) (*models.Session, error) {
			if hash != tokenHash || revoked {
				return nil, repository.ErrNotFound
			}
			return &models.Session{ID: "s1", UserID: "u1", TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		revokeFunc: func(ctx context.Context, id string) error {
			revoked = true
			return nil
		},
	}
	users := &mockUserRepo{
		getByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: "u1", Role: models.RoleUser}, nil
		},
	}
	svc := newTestService(users, sessions)

	// Prime the cache, then log out; the cached principal must not survive.
	p, err := svc.AuthenticateToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, p)

	require.NoError(t, svc.Logout(ctx, "s1"))

	p, err = svc.AuthenticateToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, p)
}
