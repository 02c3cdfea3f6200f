package users

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-id/meridian-id/internal/shared"
)

func TestRoleOrdering(t *testing.T) {
	require.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	require.True(t, RoleAdmin.AtLeast(RoleAdmin))
	require.False(t, RoleManager.AtLeast(RoleAdmin))
	require.False(t, Role("WIZARD").Valid())
	require.Equal(t, 0, Role("WIZARD").Level())
}

func TestCanSelfDelete(t *testing.T) {
	user := &User{ID: "u1", Role: RoleUser}
	admin := &User{ID: "a1", Role: RoleAdmin}

	require.NoError(t, CanSelfDelete(user, "someone-else"))
	require.Equal(t, shared.KindValidation, shared.KindOf(CanSelfDelete(user, "u1")))
	require.Equal(t, shared.KindForbidden, shared.KindOf(CanSelfDelete(admin, "someone-else")))
}

func TestCanAdminDelete(t *testing.T) {
	user := &User{ID: "u1", Role: RoleUser}
	admin := &User{ID: "a1", Role: RoleAdmin}
	otherAdmin := &User{ID: "a2", Role: RoleAdmin}
	super := &User{ID: "s1", Role: RoleSuperAdmin}

	require.Equal(t, shared.KindForbidden, shared.KindOf(CanAdminDelete(user, admin, false)))
	require.Equal(t, shared.KindValidation, shared.KindOf(CanAdminDelete(admin, admin, true)))

	require.NoError(t, CanAdminDelete(admin, user, false))
	require.Equal(t, shared.KindForbidden, shared.KindOf(CanAdminDelete(admin, otherAdmin, false)))
	require.NoError(t, CanAdminDelete(super, otherAdmin, false))

	require.Equal(t, shared.KindForbidden, shared.KindOf(CanAdminDelete(admin, super, false)))
	require.NoError(t, CanAdminDelete(admin, super, true))
}

func TestCanBulkDelete(t *testing.T) {
	admin := &User{ID: "a1", Role: RoleAdmin}
	user := &User{ID: "u1", Role: RoleUser}

	require.Equal(t, shared.KindValidation, shared.KindOf(CanBulkDelete(admin, 0)))
	require.Equal(t, shared.KindValidation, shared.KindOf(CanBulkDelete(admin, BulkDeleteMax+1)))
	require.Equal(t, shared.KindForbidden, shared.KindOf(CanBulkDelete(user, 1)))
	require.NoError(t, CanBulkDelete(admin, BulkDeleteMax))
}

func TestValidID(t *testing.T) {
	require.True(t, ValidID("9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b"))
	require.True(t, ValidID("9B2A7F46-1C3D-4E5F-8A9B-0C1D2E3F4A5B"))
	require.False(t, ValidID("not-a-uuid"))
	require.False(t, ValidID(""))
	// Wrong variant nibble.
	require.False(t, ValidID("9b2a7f46-1c3d-4e5f-0a9b-0c1d2e3f4a5b"))
}

func TestValidEmailAndPhone(t *testing.T) {
	require.True(t, ValidEmail("a@b.co"))
	require.False(t, ValidEmail("a@b"))
	require.False(t, ValidEmail("a b@c.com"))

	require.True(t, ValidPhone("+44 (0) 1234-5678"))
	require.False(t, ValidPhone("call me"))
}
