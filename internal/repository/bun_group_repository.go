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

// BunGroupRepository implements GroupRepository using Bun ORM.
type BunGroupRepository struct {
	db *bun.DB
}

// NewBunGroupRepository creates a new Bun-based group repository.
func NewBunGroupRepository(db *bun.DB) *BunGroupRepository {
	return &BunGroupRepository{db: db}
}

// Create inserts a new group. When SortOrder is unset the group is appended
// after the current highest order; the max lookup and insert share a
// transaction.
func (r *BunGroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if group.SortOrder == 0 {
			var maxOrder sql.NullInt64
			err := tx.NewSelect().
				Model((*models.Group)(nil)).
				ColumnExpr("MAX(sort_order)").
				Scan(ctx, &maxOrder)
			if err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("next sort order: %w", err)
			}
			if maxOrder.Valid {
				group.SortOrder = int(maxOrder.Int64) + 1
			}
		}
		if _, err := tx.NewInsert().Model(group).Exec(ctx); err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// GetByID retrieves a group by its ID.
func (r *BunGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	group := new(models.Group)
	err := r.db.NewSelect().
		Model(group).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("group %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get group by ID: %w", err)
	}
	return group, nil
}

// List retrieves all groups in board order.
func (r *BunGroupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.NewSelect().
		Model(&groups).
		Order("sort_order ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Update updates an existing group.
func (r *BunGroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(group).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireAffected(result, "group", group.ID)
}

// Delete removes a group. Task rows cascade via the schema.
func (r *BunGroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.Group)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireAffected(result, "group", id)
}
