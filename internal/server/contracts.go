package server

import (
	"context"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
	"github.com/crewboard/boardapi/internal/services/board"
	"github.com/crewboard/boardapi/internal/services/iam"
)

// identityService defines the exact IAM methods used by server handlers.
// Declaring the contract here gives compile-time proof that iam.Service
// satisfies the handlers without importing repositories or IAM internals.
type identityService interface {
	AuthenticateToken(ctx context.Context, token string) (*auth.Principal, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, sessionID string) error
	Impersonate(ctx context.Context, userID string) (*models.User, string, error)

	CreateUser(ctx context.Context, actor *auth.Principal, name, email, password string, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, actor *auth.Principal, userID string) error
	UpdateUserRole(ctx context.Context, actor *auth.Principal, userID string, role models.Role) error
	ChangePassword(ctx context.Context, actor *auth.Principal, userID, newPassword string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Compile-time assertion: iam.Service must implement identityService.
var _ identityService = (iam.Service)(nil)

// boardService defines the board mutation methods used by server handlers.
type boardService interface {
	CreateGroup(ctx context.Context, actor *auth.Principal, name string) (*models.Group, error)
	UpdateGroup(ctx context.Context, actor *auth.Principal, id string, name *string, sortOrder *int) (*models.Group, error)
	DeleteGroup(ctx context.Context, actor *auth.Principal, id string) error
	ListGroups(ctx context.Context) ([]models.Group, error)

	CreateTask(ctx context.Context, actor *auth.Principal, groupID, title string, params board.CreateTaskParams) (*models.Task, error)
	UpdateTask(ctx context.Context, actor *auth.Principal, id string, patch map[string]any) (*models.Task, error)
	DeleteTask(ctx context.Context, actor *auth.Principal, id string) error
	AssignOwner(ctx context.Context, actor *auth.Principal, taskID, userID string) (*models.Task, error)
	UnassignOwner(ctx context.Context, actor *auth.Principal, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context, filter string) ([]board.TaskSummary, error)
	GetTask(ctx context.Context, id string) (*board.TaskSummary, error)

	AddMessage(ctx context.Context, actor *auth.Principal, taskID, body string) (*models.TaskMessage, error)
	ListMessages(ctx context.Context, taskID string) ([]models.TaskMessage, error)
}

// Compile-time assertion: board.Service must implement boardService.
var _ boardService = (*board.Service)(nil)
