package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/crewboard/boardapi/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260115000001, down_20260115000001)
}

// up_20260115000001 initializes the full database schema
func up_20260115000001(ctx context.Context, db *bun.DB) error {
	// 1. Create users table
	fmt.Print(" [up] creating users table...")
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`)
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	fmt.Println(" OK")

	// 2. Create sessions table
	fmt.Print(" [up] creating sessions table...")
	_, err = db.NewCreateTable().
		Model((*models.Session)(nil)).
		IfNotExists().
		ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_token_hash ON sessions(token_hash)`)
	if err != nil {
		return fmt.Errorf("failed to create sessions token_hash index: %w", err)
	}
	fmt.Println(" OK")

	// 3. Create groups table
	fmt.Print(" [up] creating groups table...")
	_, err = db.NewCreateTable().
		Model((*models.Group)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create groups table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_groups_sort_order ON groups(sort_order)`)
	if err != nil {
		return fmt.Errorf("failed to create groups sort_order index: %w", err)
	}
	fmt.Println(" OK")

	// 4. Create tasks table
	// Deleting a group removes its tasks; deleting a user only clears
	// ownership of the tasks they owned.
	fmt.Print(" [up] creating tasks table...")
	_, err = db.NewCreateTable().
		Model((*models.Task)(nil)).
		IfNotExists().
		ForeignKey(`(group_id) REFERENCES groups(id) ON DELETE CASCADE`).
		ForeignKey(`(owner_id) REFERENCES users(id) ON DELETE SET NULL`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tasks_group_id ON tasks(group_id)`)
	if err != nil {
		return fmt.Errorf("failed to create tasks group_id index: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_id)`)
	if err != nil {
		return fmt.Errorf("failed to create tasks owner_id index: %w", err)
	}
	fmt.Println(" OK")

	// 5. Create task_assignments table
	fmt.Print(" [up] creating task_assignments table...")
	_, err = db.NewCreateTable().
		Model((*models.TaskAssignment)(nil)).
		IfNotExists().
		ForeignKey(`(task_id) REFERENCES tasks(id) ON DELETE CASCADE`).
		ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create task_assignments table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_task_assignments_user_id ON task_assignments(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create task_assignments user_id index: %w", err)
	}
	fmt.Println(" OK")

	// 6. Create task_messages table
	fmt.Print(" [up] creating task_messages table...")
	_, err = db.NewCreateTable().
		Model((*models.TaskMessage)(nil)).
		IfNotExists().
		ForeignKey(`(task_id) REFERENCES tasks(id) ON DELETE CASCADE`).
		ForeignKey(`(user_id) REFERENCES users(id) ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create task_messages table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_task_messages_task_id ON task_messages(task_id, created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create task_messages task_id index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260115000001 drops the full schema in reverse dependency order
func down_20260115000001(ctx context.Context, db *bun.DB) error {
	tables := []string{
		"task_messages",
		"task_assignments",
		"tasks",
		"groups",
		"sessions",
		"users",
	}
	for _, table := range tables {
		fmt.Printf(" [down] dropping %s table...", table)
		if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", table, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
