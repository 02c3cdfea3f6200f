package users

import "github.com/meridian-id/meridian-id/internal/shared"

// BulkDeleteMax caps the number of targets accepted by a single bulk
// delete call.
const BulkDeleteMax = 50

// CanSelfDelete decides whether actor may hard-delete target through the
// plain delete path. Admin-grade accounts require the elevated path.
func CanSelfDelete(target *User, actorID string) error {
	if actorID != "" && actorID == target.ID {
		return shared.E(shared.KindValidation, "cannot delete your own account")
	}
	if target.Role == RoleAdmin || target.Role == RoleSuperAdmin {
		return shared.E(shared.KindForbidden, "admin accounts cannot be deleted directly")
	}
	return nil
}

// CanSoftDelete decides whether actor may deactivate target in place.
func CanSoftDelete(target *User, actorID string) error {
	if actorID != "" && actorID == target.ID {
		return shared.E(shared.KindValidation, "cannot delete your own account")
	}
	return nil
}

// CanAdminDelete decides whether actor may hard-delete target through the
// elevated path. Without force, only a SUPER_ADMIN may delete an ADMIN and
// SUPER_ADMIN accounts are never deletable.
func CanAdminDelete(actor, target *User, force bool) error {
	if actor.Role != RoleAdmin && actor.Role != RoleSuperAdmin {
		return shared.E(shared.KindForbidden, "insufficient permissions to perform admin delete")
	}
	if actor.ID == target.ID {
		return shared.E(shared.KindValidation, "cannot delete your own account")
	}
	if force {
		return nil
	}
	if target.Role == RoleAdmin && actor.Role != RoleSuperAdmin {
		return shared.E(shared.KindForbidden, "only a super admin can delete admin accounts")
	}
	if target.Role == RoleSuperAdmin {
		return shared.E(shared.KindForbidden, "super admin accounts cannot be deleted")
	}
	return nil
}

// CanBulkDelete validates the batch shape and the actor's privilege.
func CanBulkDelete(actor *User, targets int) error {
	if targets == 0 {
		return shared.E(shared.KindValidation, "at least one target id is required")
	}
	if targets > BulkDeleteMax {
		return shared.Ef(shared.KindValidation, "cannot delete more than %d accounts at once", BulkDeleteMax)
	}
	if actor.Role != RoleAdmin && actor.Role != RoleSuperAdmin {
		return shared.E(shared.KindForbidden, "insufficient permissions for bulk delete")
	}
	return nil
}

// ValidateRole rejects role values outside the closed role set.
func ValidateRole(role Role) error {
	if !role.Valid() {
		return shared.E(shared.KindValidation, "invalid role specified")
	}
	return nil
}
