package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/crewboard/boardapi/internal/db/models"
)

// BunTaskMessageRepository implements TaskMessageRepository using Bun ORM.
type BunTaskMessageRepository struct {
	db *bun.DB
}

// NewBunTaskMessageRepository creates a new Bun-based task message repository.
func NewBunTaskMessageRepository(db *bun.DB) *BunTaskMessageRepository {
	return &BunTaskMessageRepository{db: db}
}

// Create appends a message to a task's thread.
func (r *BunTaskMessageRepository) Create(ctx context.Context, msg *models.TaskMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().
		Model(msg).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create task message: %w", err)
	}
	return nil
}

// ListByTask returns a task's messages ordered by creation time ascending.
func (r *BunTaskMessageRepository) ListByTask(ctx context.Context, taskID string) ([]models.TaskMessage, error) {
	var msgs []models.TaskMessage
	err := r.db.NewSelect().
		Model(&msgs).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task messages: %w", err)
	}
	return msgs, nil
}
