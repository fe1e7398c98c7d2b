// Package board implements the mutation operations of the task board:
// groups, tasks, assignee sets, and task messages. Every mutation authorizes
// the acting principal through the auth package before touching persistence.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
	"github.com/crewboard/boardapi/internal/repository"
)

// Service orchestrates board mutations for the HTTP handlers.
type Service struct {
	groups   repository.GroupRepository
	tasks    repository.TaskRepository
	messages repository.TaskMessageRepository
	users    repository.UserRepository
}

// NewService constructs a new Service instance.
func NewService(
	groups repository.GroupRepository,
	tasks repository.TaskRepository,
	messages repository.TaskMessageRepository,
	users repository.UserRepository,
) *Service {
	return &Service{groups: groups, tasks: tasks, messages: messages, users: users}
}

// CreateGroup appends a new group to the board. Structural mutation.
func (s *Service) CreateGroup(ctx context.Context, actor *auth.Principal, name string) (*models.Group, error) {
	if err := requireStructural(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", auth.ErrInvalidInput)
	}
	group := &models.Group{Name: name}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup renames and/or reorders a group. Structural mutation.
func (s *Service) UpdateGroup(ctx context.Context, actor *auth.Principal, id string, name *string, sortOrder *int) (*models.Group, error) {
	if err := requireStructural(actor); err != nil {
		return nil, err
	}
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if *name == "" {
			return nil, fmt.Errorf("group name is required: %w", auth.ErrInvalidInput)
		}
		group.Name = *name
	}
	if sortOrder != nil {
		group.SortOrder = *sortOrder
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group; its tasks cascade. Structural mutation.
func (s *Service) DeleteGroup(ctx context.Context, actor *auth.Principal, id string) error {
	if err := requireStructural(actor); err != nil {
		return err
	}
	return s.groups.Delete(ctx, id)
}

// ListGroups returns all groups in board order. Open read.
func (s *Service) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// CreateTaskParams carries the optional fields of a new task.
type CreateTaskParams struct {
	OwnerID     *string
	Owner       *string
	Status      models.Status
	StartDate   *time.Time
	DueDate     *time.Time
	Dropdown    *string
	AssigneeIDs []string
}

// CreateTask inserts a task into a group, optionally with an initial owner
// and assignee set. Structural mutation.
func (s *Service) CreateTask(ctx context.Context, actor *auth.Principal, groupID, title string, params CreateTaskParams) (*models.Task, error) {
	if err := requireStructural(actor); err != nil {
		return nil, err
	}
	if groupID == "" || title == "" {
		return nil, fmt.Errorf("group and title are required: %w", auth.ErrInvalidInput)
	}
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, auth.ErrInvalidInput)
	}

	task := &models.Task{
		GroupID:   groupID,
		Title:     title,
		OwnerID:   params.OwnerID,
		Owner:     params.Owner,
		Status:    status,
		StartDate: params.StartDate,
		DueDate:   params.DueDate,
		Dropdown:  params.Dropdown,
	}
	if task.OwnerID != nil {
		if _, err := s.users.GetByID(ctx, *task.OwnerID); err != nil {
			return nil, err
		}
		now := time.Now()
		task.AssignedAt = &now
	}

	if err := s.tasks.Create(ctx, task, params.AssigneeIDs); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial update to a task. Privileged actors may touch
// any field; a USER's patch is sanitized down to the allow-list and the rest
// is dropped silently. A present key with a null value clears the field;
// setting or clearing owner_id recomputes assigned_at; a present
// assignee_ids replaces the assignee set transactionally.
func (s *Service) UpdateTask(ctx context.Context, actor *auth.Principal, id string, patch map[string]any) (*models.Task, error) {
	if actor == nil {
		return nil, fmt.Errorf("update task: %w", auth.ErrNotAuthenticated)
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := auth.FilterTaskPatch(actor.Role, patch)
	p, err := decodeTaskPatch(fields)
	if err != nil {
		return nil, err
	}

	if p.has("title") {
		if p.Title == nil || *p.Title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", auth.ErrInvalidInput)
		}
		task.Title = *p.Title
	}
	if p.has("group_id") {
		if p.GroupID == nil {
			return nil, fmt.Errorf("group_id cannot be null: %w", auth.ErrInvalidInput)
		}
		if _, err := s.groups.GetByID(ctx, *p.GroupID); err != nil {
			return nil, err
		}
		task.GroupID = *p.GroupID
	}
	if p.has("status") {
		if p.Status == nil || !p.Status.Valid() {
			return nil, fmt.Errorf("unknown status: %w", auth.ErrInvalidInput)
		}
		task.Status = *p.Status
	}
	if p.has("owner_id") {
		if p.OwnerID == nil {
			task.OwnerID = nil
			task.AssignedAt = nil
		} else {
			if _, err := s.users.GetByID(ctx, *p.OwnerID); err != nil {
				return nil, err
			}
			task.OwnerID = p.OwnerID
			now := time.Now()
			task.AssignedAt = &now
		}
	}
	if p.has("owner") {
		task.Owner = p.Owner
	}
	if p.has("start_date") {
		task.StartDate = p.StartDate
	}
	if p.has("due_date") {
		task.DueDate = p.DueDate
	}
	if p.has("dropdown") {
		task.Dropdown = p.Dropdown
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if p.has("assignee_ids") {
		var ids []string
		if p.AssigneeIDs != nil {
			ids = *p.AssigneeIDs
		}
		if err := s.tasks.ReplaceAssignees(ctx, id, ids); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// DeleteTask removes a task. Structural mutation.
func (s *Service) DeleteTask(ctx context.Context, actor *auth.Principal, id string) error {
	if err := requireStructural(actor); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

// AssignOwner sets a task's owner. Structural mutation, independent of the
// field allow-list: a plain USER cannot reach owner_id through here either.
func (s *Service) AssignOwner(ctx context.Context, actor *auth.Principal, taskID, userID string) (*models.Task, error) {
	if err := requireStructural(actor); err != nil {
		return nil, err
	}
	return s.UpdateTask(ctx, actor, taskID, map[string]any{"owner_id": userID})
}

// UnassignOwner clears a task's owner and assigned_at. Structural mutation.
func (s *Service) UnassignOwner(ctx context.Context, actor *auth.Principal, taskID string) (*models.Task, error) {
	if err := requireStructural(actor); err != nil {
		return nil, err
	}
	return s.UpdateTask(ctx, actor, taskID, map[string]any{"owner_id": nil})
}

// TaskSummary is a task plus its assignee set for list responses.
type TaskSummary struct {
	models.Task
	AssigneeIDs []string `json:"assignee_ids"`
}

// ListTasks returns all tasks, optionally narrowed by a bexpr filter over
// {group_id, status, owner_id, owner, dropdown, title}. Open read.
func (s *Service) ListTasks(ctx context.Context, filter string) ([]TaskSummary, error) {
	matcher, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		if !matcher(&task) {
			continue
		}
		assigneeIDs, err := s.tasks.ListAssigneeIDs(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, TaskSummary{Task: task, AssigneeIDs: assigneeIDs})
	}
	return summaries, nil
}

// GetTask returns one task with its assignee set. Open read.
func (s *Service) GetTask(ctx context.Context, id string) (*TaskSummary, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assigneeIDs, err := s.tasks.ListAssigneeIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TaskSummary{Task: *task, AssigneeIDs: assigneeIDs}, nil
}

// AddMessage appends a message to a task's thread. Allowed for privileged
// actors and participants (the task owner or an assignee).
func (s *Service) AddMessage(ctx context.Context, actor *auth.Principal, taskID, body string) (*models.TaskMessage, error) {
	if actor == nil {
		return nil, fmt.Errorf("post message: %w", auth.ErrNotAuthenticated)
	}
	if body == "" {
		return nil, fmt.Errorf("message body is required: %w", auth.ErrInvalidInput)
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	participant := task.OwnerID != nil && *task.OwnerID == actor.UserID
	if !participant {
		assigneeIDs, err := s.tasks.ListAssigneeIDs(ctx, taskID)
		if err != nil {
			return nil, err
		}
		for _, id := range assigneeIDs {
			if id == actor.UserID {
				participant = true
				break
			}
		}
	}
	if !auth.CanPostMessage(actor.Role, participant) {
		return nil, fmt.Errorf("post message: %w", auth.ErrNotAuthorized)
	}

	msg := &models.TaskMessage{
		TaskID: taskID,
		UserID: actor.UserID,
		Body:   body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a task's thread oldest first. Open read.
func (s *Service) ListMessages(ctx context.Context, taskID string) ([]models.TaskMessage, error) {
	return s.messages.ListByTask(ctx, taskID)
}

func requireStructural(actor *auth.Principal) error {
	if actor == nil {
		return fmt.Errorf("structural mutation: %w", auth.ErrNotAuthenticated)
	}
	if !auth.CanMutateStructural(actor.Role) {
		return fmt.Errorf("structural mutation: %w", auth.ErrNotAuthorized)
	}
	return nil
}
