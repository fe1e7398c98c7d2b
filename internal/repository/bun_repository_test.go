package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/crewboard/boardapi/internal/db/bunx"
	"github.com/crewboard/boardapi/internal/db/models"
)

// setupTestDB opens an in-memory SQLite database and creates the schema.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { bunx.Close(db) })

	ctx := context.Background()

	_, err = db.NewCreateTable().Model((*models.User)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*models.Session)(nil)).
		ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`).
		Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*models.Group)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*models.Task)(nil)).
		ForeignKey(`(group_id) REFERENCES groups(id) ON DELETE CASCADE`).
		ForeignKey(`(owner_id) REFERENCES users(id) ON DELETE SET NULL`).
		Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*models.TaskAssignment)(nil)).
		ForeignKey(`(task_id) REFERENCES tasks(id) ON DELETE CASCADE`).
		ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`).
		Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*models.TaskMessage)(nil)).
		ForeignKey(`(task_id) REFERENCES tasks(id) ON DELETE CASCADE`).
		ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`).
		Exec(ctx)
	require.NoError(t, err)

	return db
}

func seedTestUser(t *testing.T, repo *BunUserRepository, name, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        &email,
		Role:         models.RoleUser,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestBunUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunUserRepository(db)
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		user := seedTestUser(t, repo, "Dana", "dana@example.com")
		assert.NotEmpty(t, user.ID)

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dana", byID.Name)

		byEmail, err := repo.GetByEmail(ctx, "dana@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		email := "dana@example.com"
		err := repo.Create(ctx, &models.User{
			Name:         "Other Dana",
			Email:        &email,
			Role:         models.RoleUser,
			PasswordHash: "x",
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("update role", func(t *testing.T) {
		user := seedTestUser(t, repo, "Alex", "alex@example.com")
		require.NoError(t, repo.UpdateRole(ctx, user.ID, models.RoleAdmin))

		updated, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)
	})

	t.Run("writes against missing users are not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateRole(ctx, "ghost", models.RoleAdmin), ErrNotFound)
		assert.ErrorIs(t, repo.SetPasswordHash(ctx, "ghost", "y"), ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "ghost"), ErrNotFound)

		_, err := repo.GetByID(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBunGroupRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunGroupRepository(db)
	ctx := context.Background()

	t.Run("new groups append after the highest sort order", func(t *testing.T) {
		first := &models.Group{Name: "This Week"}
		second := &models.Group{Name: "Next Week"}
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		assert.Greater(t, second.SortOrder, first.SortOrder)

		groups, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "This Week", groups[0].Name)
		assert.Equal(t, "Next Week", groups[1].Name)
	})

	t.Run("explicit sort order is kept", func(t *testing.T) {
		group := &models.Group{Name: "Backlog", SortOrder: 99}
		require.NoError(t, repo.Create(ctx, group))
		assert.Equal(t, 99, group.SortOrder)
	})

	t.Run("update and delete", func(t *testing.T) {
		group := &models.Group{Name: "Temp"}
		require.NoError(t, repo.Create(ctx, group))

		group.Name = "Renamed"
		require.NoError(t, repo.Update(ctx, group))

		fetched, err := repo.GetByID(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", fetched.Name)

		require.NoError(t, repo.Delete(ctx, group.ID))
		_, err = repo.GetByID(ctx, group.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBunTaskRepository(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	groups := NewBunGroupRepository(db)
	repo := NewBunTaskRepository(db)
	ctx := context.Background()

	alice := seedTestUser(t, users, "Alice", "alice@example.com")
	bob := seedTestUser(t, users, "Bob", "bob@example.com")

	group := &models.Group{Name: "Sprint"}
	require.NoError(t, groups.Create(ctx, group))

	t.Run("create with assignees", func(t *testing.T) {
		task := &models.Task{
			GroupID: group.ID,
			Title:   "Write docs",
			Status:  models.StatusNotStarted,
		}
		require.NoError(t, repo.Create(ctx, task, []string{alice.ID, bob.ID}))

		ids, err := repo.ListAssigneeIDs(ctx, task.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{alice.ID, bob.ID}, ids)
	})

	t.Run("replace assignees swaps the whole set", func(t *testing.T) {
		task := &models.Task{GroupID: group.ID, Title: "Review PR", Status: models.StatusNotStarted}
		require.NoError(t, repo.Create(ctx, task, []string{alice.ID}))

		require.NoError(t, repo.ReplaceAssignees(ctx, task.ID, []string{bob.ID}))
		ids, err := repo.ListAssigneeIDs(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, ids)

		require.NoError(t, repo.ReplaceAssignees(ctx, task.ID, nil))
		ids, err = repo.ListAssigneeIDs(ctx, task.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("deleting the group cascades to tasks and assignments", func(t *testing.T) {
		doomed := &models.Group{Name: "Doomed"}
		require.NoError(t, groups.Create(ctx, doomed))

		task := &models.Task{GroupID: doomed.ID, Title: "Orphan", Status: models.StatusNotStarted}
		require.NoError(t, repo.Create(ctx, task, []string{alice.ID}))

		require.NoError(t, groups.Delete(ctx, doomed.ID))

		_, err := repo.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		ids, err := repo.ListAssigneeIDs(ctx, task.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("deleting the owner clears owner_id but keeps the task", func(t *testing.T) {
		victim := seedTestUser(t, users, "Victim", "victim@example.com")
		now := time.Now()
		task := &models.Task{
			GroupID:    group.ID,
			Title:      "Owned",
			Status:     models.StatusWorkingOnIt,
			OwnerID:    &victim.ID,
			AssignedAt: &now,
		}
		require.NoError(t, repo.Create(ctx, task, nil))

		require.NoError(t, users.Delete(ctx, victim.ID))

		survivor, err := repo.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Nil(t, survivor.OwnerID)
	})
}

func TestBunTaskMessageRepository(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	groups := NewBunGroupRepository(db)
	tasks := NewBunTaskRepository(db)
	repo := NewBunTaskMessageRepository(db)
	ctx := context.Background()

	author := seedTestUser(t, users, "Author", "author@example.com")
	group := &models.Group{Name: "Sprint"}
	require.NoError(t, groups.Create(ctx, group))
	task := &models.Task{GroupID: group.ID, Title: "Chatty", Status: models.StatusNotStarted}
	require.NoError(t, tasks.Create(ctx, task, nil))

	base := time.Now()
	for i, body := range []string{"first", "second", "third"} {
		msg := &models.TaskMessage{
			TaskID:    task.ID,
			UserID:    author.ID,
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, msg))
	}

	msgs, err := repo.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "third", msgs[2].Body)
}

func TestBunSessionRepository(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, users, "Dana", "dana@example.com")

	session := &models.Session{
		UserID:     user.ID,
		TokenHash:  "hash-1",
		ExpiresAt:  time.Now().Add(time.Hour),
		CreatedAt:  time.Now(),
		LastUsedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, session))

	t.Run("lookup by token hash", func(t *testing.T) {
		found, err := repo.GetByTokenHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.Equal(t, session.ID, found.ID)
		assert.False(t, found.Revoked)
	})

	t.Run("unknown hash is not found", func(t *testing.T) {
		_, err := repo.GetByTokenHash(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("revoke", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, session.ID))

		found, err := repo.GetByTokenHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.True(t, found.Revoked)
	})

	t.Run("deleting the user cascades to sessions", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, user.ID))
		_, err := repo.GetByTokenHash(ctx, "hash-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
