package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewboard/boardapi/internal/auth"
	"github.com/crewboard/boardapi/internal/db/models"
)

// CreateUserRequest carries the fields for POST /api/users. Role is honored
// only for sufficiently privileged callers; unauthenticated signups always
// produce a USER.
type CreateUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// UpdateUserRoleRequest carries the new role for PUT /api/users/{id}/role.
type UpdateUserRoleRequest struct {
	Role models.Role `json:"role"`
}

// ChangePasswordRequest carries the new password for PUT /api/users/{id}/password.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// HandleCreateUser creates a user. Role escalation rules live in the IAM
// service; the handler just forwards the acting principal.
func HandleCreateUser(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		user, err := iamService.CreateUser(r.Context(), actor, req.Name, req.Email, req.Password, req.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// HandleListUsers returns all users.
func HandleListUsers(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := iamService.ListUsers(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// HandleGetUser returns one user by id.
func HandleGetUser(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := iamService.GetUserByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// HandleDeleteUser removes a user, subject to the role hierarchy.
func HandleDeleteUser(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.PrincipalFromContext(r.Context())
		if err := iamService.DeleteUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleUpdateUserRole changes a user's role, subject to the role hierarchy.
func HandleUpdateUserRole(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateUserRoleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		id := chi.URLParam(r, "id")
		if err := iamService.UpdateUserRole(r.Context(), actor, id, req.Role); err != nil {
			writeError(w, err)
			return
		}

		user, err := iamService.GetUserByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// HandleChangePassword sets a new password for a user. Allowed for the user
// themselves or a privileged actor.
func HandleChangePassword(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		actor := auth.PrincipalFromContext(r.Context())
		if err := iamService.ChangePassword(r.Context(), actor, chi.URLParam(r, "id"), req.Password); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
	}
}
