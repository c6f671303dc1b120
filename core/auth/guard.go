// Package auth holds the role- and ownership-based authorization guard
// consumed by every mutating operation. Checks return typed permission
// errors so callers and the HTTP layer treat denials uniformly.
package auth

import (
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	deniedText          = "permission denied"
	sessionNotOwnedText = "session does not belong to this teacher"
)

// Owned is any resource owned by a single teacher.
type Owned interface {
	OwnedBy(teacherID string) bool
}

// RequireRole denies users whose roles do not start with the given prefix.
func RequireRole(usr user.User, rolePrefix string) error {
	if !usr.RoleStartsWith(rolePrefix) {
		return core.NewPermissionError(deniedText)
	}
	return nil
}

// RequireSessionOwner denies teachers acting on sessions they do not own.
func RequireSessionOwner(teacher user.User, res Owned) error {
	if err := RequireRole(teacher, user.RoleTeacher); err != nil {
		return err
	}
	if !res.OwnedBy(teacher.ID) {
		return core.NewPermissionError(sessionNotOwnedText)
	}
	return nil
}

// RequireSelfOrSessionOwner authorizes the owning student or the owning
// teacher, used for justification downloads.
func RequireSelfOrSessionOwner(caller user.User, studentID string, res Owned) error {
	if caller.ID == studentID {
		return nil
	}
	if caller.IsTeacher() && res.OwnedBy(caller.ID) {
		return nil
	}
	return core.NewPermissionError(deniedText)
}
