package repository

import (
	"context"

	"github.com/crewboard/boardapi/internal/db/models"
)

// UserRepository exposes persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
	SetPasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// GroupRepository exposes persistence operations for task groups.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
}

// TaskRepository exposes persistence operations for tasks and their
// assignee sets.
type TaskRepository interface {
	// Create inserts the task and, when assigneeIDs is non-empty, the
	// assignment rows in the same transaction.
	Create(ctx context.Context, task *models.Task, assigneeIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error

	// ReplaceAssignees swaps the full assignee set for a task. The delete and
	// re-insert run in one transaction so readers never observe an empty set
	// mid-replacement.
	ReplaceAssignees(ctx context.Context, taskID string, userIDs []string) error
	ListAssigneeIDs(ctx context.Context, taskID string) ([]string, error)
}

// TaskMessageRepository exposes persistence operations for task messages.
type TaskMessageRepository interface {
	Create(ctx context.Context, msg *models.TaskMessage) error
	// ListByTask returns messages ordered by creation time ascending.
	ListByTask(ctx context.Context, taskID string) ([]models.TaskMessage, error)
}

// SessionRepository exposes persistence operations for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Revoke(ctx context.Context, id string) error
	UpdateLastUsed(ctx context.Context, id string) error
}
