package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is the progress state of a task. The graph is flat: any authorized
// actor may move a task from any status to any other directly.
type Status string

const (
	StatusNotStarted  Status = "NOT_STARTED"
	StatusWorkingOnIt Status = "WORKING_ON_IT"
	StatusDone        Status = "DONE"
	StatusStuck       Status = "STUCK"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusWorkingOnIt, StatusDone, StatusStuck:
		return true
	}
	return false
}

// Group is a named, ordered bucket of tasks (a board column).
// Deleting a group cascades to its tasks.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	SortOrder int       `bun:"sort_order,notnull,default:0" json:"sort_order"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Task is a unit of work belonging to exactly one group.
//
// Owner is a legacy free-form display name kept alongside OwnerID.
// AssignedAt is non-null iff OwnerID is non-null; the update operation
// maintains that invariant, not the schema.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID         string     `bun:"id,pk,type:uuid" json:"id"`
	GroupID    string     `bun:"group_id,notnull,type:uuid" json:"group_id"`
	Title      string     `bun:"title,notnull" json:"title"`
	OwnerID    *string    `bun:"owner_id,type:uuid" json:"owner_id"`
	Owner      *string    `bun:"owner" json:"owner"`
	Status     Status     `bun:"status,notnull,default:'NOT_STARTED'" json:"status"`
	StartDate  *time.Time `bun:"start_date" json:"start_date"`
	DueDate    *time.Time `bun:"due_date" json:"due_date"`
	Dropdown   *string    `bun:"dropdown" json:"dropdown"`
	AssignedAt *time.Time `bun:"assigned_at" json:"assigned_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// TaskAssignment joins tasks to assigned users. The assignee set for a task
// is replaced wholesale on update rather than diffed.
type TaskAssignment struct {
	bun.BaseModel `bun:"table:task_assignments,alias:ta"`

	TaskID    string    `bun:"task_id,pk,type:uuid" json:"task_id"`
	UserID    string    `bun:"user_id,pk,type:uuid" json:"user_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// TaskMessage is an append-only chat entry on a task, listed ascending by
// creation time.
type TaskMessage struct {
	bun.BaseModel `bun:"table:task_messages,alias:tm"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	TaskID    string    `bun:"task_id,notnull,type:uuid" json:"task_id"`
	UserID    string    `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Body      string    `bun:"body,notnull" json:"body"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
