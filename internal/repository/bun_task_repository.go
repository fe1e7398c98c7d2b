package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/crewboard/boardapi/internal/db/models"
)

// BunTaskRepository implements TaskRepository using Bun ORM.
type BunTaskRepository struct {
	db *bun.DB
}

// NewBunTaskRepository creates a new Bun-based task repository.
func NewBunTaskRepository(db *bun.DB) *BunTaskRepository {
	return &BunTaskRepository{db: db}
}

// Create inserts a task and its initial assignee rows in one transaction.
func (r *BunTaskRepository) Create(ctx context.Context, task *models.Task, assigneeIDs []string) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(task).Exec(ctx); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if len(assigneeIDs) > 0 {
			assignments := makeAssignments(task.ID, assigneeIDs)
			if _, err := tx.NewInsert().Model(&assignments).Exec(ctx); err != nil {
				return fmt.Errorf("insert assignments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its ID.
func (r *BunTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task := new(models.Task)
	err := r.db.NewSelect().
		Model(task).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get task by ID: %w", err)
	}
	return task, nil
}

// List retrieves all tasks, oldest first.
func (r *BunTaskRepository) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.NewSelect().
		Model(&tasks).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListByGroup retrieves the tasks of one group, oldest first.
func (r *BunTaskRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.NewSelect().
		Model(&tasks).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks by group: %w", err)
	}
	return tasks, nil
}

// Update updates an existing task.
func (r *BunTaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(task).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireAffected(result, "task", task.ID)
}

// Delete removes a task. Assignments and messages cascade via the schema.
func (r *BunTaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.Task)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireAffected(result, "task", id)
}

// ReplaceAssignees swaps the full assignee set inside one transaction so
// concurrent readers never see the empty window between delete and insert.
func (r *BunTaskRepository) ReplaceAssignees(ctx context.Context, taskID string, userIDs []string) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.TaskAssignment)(nil)).
			Where("task_id = ?", taskID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		if len(userIDs) > 0 {
			assignments := makeAssignments(taskID, userIDs)
			if _, err := tx.NewInsert().Model(&assignments).Exec(ctx); err != nil {
				return fmt.Errorf("insert assignments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace assignees: %w", err)
	}
	return nil
}

// ListAssigneeIDs returns the user IDs assigned to a task.
func (r *BunTaskRepository) ListAssigneeIDs(ctx context.Context, taskID string) ([]string, error) {
	var userIDs []string
	err := r.db.NewSelect().
		Model((*models.TaskAssignment)(nil)).
		Column("user_id").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, fmt.Errorf("list assignee IDs: %w", err)
	}
	return userIDs, nil
}

func makeAssignments(taskID string, userIDs []string) []models.TaskAssignment {
	now := time.Now()
	assignments := make([]models.TaskAssignment, 0, len(userIDs))
	for _, userID := range userIDs {
		assignments = append(assignments, models.TaskAssignment{
			TaskID:    taskID,
			UserID:    userID,
			CreatedAt: now,
		})
	}
	return assignments
}
