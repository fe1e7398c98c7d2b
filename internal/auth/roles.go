package auth

import (
	"github.com/crewboard/boardapi/internal/db/models"
)

// Rank maps a role onto the authorization order: USER→1, ADMIN→2, DEVELOPER→3.
// Unknown roles rank below USER.
func Rank(r models.Role) int {
	switch r {
	case models.RoleUser:
		return 1
	case models.RoleAdmin:
		return 2
	case models.RoleDeveloper:
		return 3
	}
	return 0
}

// IsPrivileged reports whether the role may perform structural mutations
// (create/delete groups, tasks, and privileged field changes).
func IsPrivileged(r models.Role) bool {
	return r == models.RoleAdmin || r == models.RoleDeveloper
}

// CanMutateStructural is the structural-mutation gate: ADMIN or DEVELOPER only.
func CanMutateStructural(actor models.Role) bool {
	return IsPrivileged(actor)
}

// CanManageUsers decides whether actor may create or delete a user.
//
// A nil target means "creating a brand-new user" (the new user's role is
// restricted elsewhere). DEVELOPER may manage anyone; ADMIN may manage only
// plain users; USER may manage nobody.
func CanManageUsers(actor models.Role, target *models.Role) bool {
	switch actor {
	case models.RoleDeveloper:
		return true
	case models.RoleAdmin:
		return target == nil || *target == models.RoleUser
	}
	return false
}

// CanSetRole decides whether actor may assign the given role to a user.
// ADMIN may only ever assign USER, never ADMIN or DEVELOPER.
func CanSetRole(actor models.Role, role models.Role) bool {
	switch actor {
	case models.RoleDeveloper:
		return true
	case models.RoleAdmin:
		return role == models.RoleUser
	}
	return false
}

// userEditableTaskFields is the fixed allow-list a non-privileged actor may
// modify on a task.
var userEditableTaskFields = map[string]struct{}{
	"status":     {},
	"start_date": {},
	"due_date":   {},
	"dropdown":   {},
}

// FilterTaskPatch sanitizes a task update payload by role. Privileged actors
// get the patch back unchanged; a USER keeps only the allow-listed fields and
// everything else is dropped silently rather than rejected.
func FilterTaskPatch(actor models.Role, patch map[string]any) map[string]any {
	if IsPrivileged(actor) {
		return patch
	}
	filtered := make(map[string]any, len(patch))
	for k, v := range patch {
		if _, ok := userEditableTaskFields[k]; ok {
			filtered[k] = v
		}
	}
	return filtered
}

// CanPostMessage decides whether actor may post a message on a task:
// privileged roles always, otherwise only participants (the task owner or a
// member of the assignee set).
func CanPostMessage(actor models.Role, isParticipant bool) bool {
	return IsPrivileged(actor) || isParticipant
}
