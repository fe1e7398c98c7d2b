package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
	"github.com/crewboard/boardapi/internal/services/board"
)

// CreateGroupRequest carries the fields for POST /api/groups.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// UpdateGroupRequest carries the optional fields for PUT /api/groups/{id}.
type UpdateGroupRequest struct {
	Name      *string `json:"name"`
	SortOrder *int    `json:"sort_order"`
}

// CreateTaskRequest carries the fields for POST /api/tasks.
type CreateTaskRequest struct {
	GroupID     string        `json:"group_id"`
	Title       string        `json:"title"`
	OwnerID     *string       `json:"owner_id"`
	Owner       *string       `json:"owner"`
	Status      models.Status `json:"status"`
	StartDate   *time.Time    `json:"start_date"`
	DueDate     *time.Time    `json:"due_date"`
	Dropdown    *string       `json:"dropdown"`
	AssigneeIDs []string      `json:"assignee_ids"`
}

// AssignOwnerRequest selects the owner for POST /api/tasks/{id}/owner.
type AssignOwnerRequest struct {
	UserID string `json:"user_id"`
}

// AddMessageRequest carries the body for POST /api/tasks/{id}/messages.
type AddMessageRequest struct {
	Body string `json:"body"`
}

// HandleCreateGroup creates a board group.
func HandleCreateGroup(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGroupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		group, err := svc.CreateGroup(r.Context(), actor, req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, group)
	}
}

// HandleListGroups returns all groups in board order.
func HandleListGroups(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.ListGroups(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

// HandleUpdateGroup renames and/or reorders a group.
func HandleUpdateGroup(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateGroupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		group, err := svc.UpdateGroup(r.Context(), actor, chi.URLParam(r, "id"), req.Name, req.SortOrder)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

// HandleDeleteGroup removes a group; its tasks cascade.
func HandleDeleteGroup(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.PrincipalFromContext(r.Context())
		if err := svc.DeleteGroup(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCreateTask inserts a task into a group.
func HandleCreateTask(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		task, err := svc.CreateTask(r.Context(), actor, req.GroupID, req.Title, board.CreateTaskParams{
			OwnerID:     req.OwnerID,
			Owner:       req.Owner,
			Status:      req.Status,
			StartDate:   req.StartDate,
			DueDate:     req.DueDate,
			Dropdown:    req.Dropdown,
			AssigneeIDs: req.AssigneeIDs,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}

// HandleListTasks returns all tasks with their assignee sets, optionally
// narrowed by a ?filter= boolean expression.
func HandleListTasks(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := svc.ListTasks(r.Context(), r.URL.Query().Get("filter"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

// HandleGetTask returns one task with its assignee set.
func HandleGetTask(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := svc.GetTask(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// HandleUpdateTask applies a partial update. The raw JSON object is passed
// through so the service can distinguish absent keys from null values and
// sanitize the patch by role.
func HandleUpdateTask(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]any
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		task, err := svc.UpdateTask(r.Context(), actor, chi.URLParam(r, "id"), patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// HandleDeleteTask removes a task.
func HandleDeleteTask(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.PrincipalFromContext(r.Context())
		if err := svc.DeleteTask(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAssignOwner sets a task's owner.
func HandleAssignOwner(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignOwnerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		task, err := svc.AssignOwner(r.Context(), actor, chi.URLParam(r, "id"), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// HandleUnassignOwner clears a task's owner.
func HandleUnassignOwner(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.PrincipalFromContext(r.Context())
		task, err := svc.UnassignOwner(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// HandleAddMessage appends a message to a task's thread.
func HandleAddMessage(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		msg, err := svc.AddMessage(r.Context(), actor, chi.URLParam(r, "id"), req.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// HandleListMessages returns a task's thread oldest first.
func HandleListMessages(svc boardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := svc.ListMessages(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}
