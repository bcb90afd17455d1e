package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-api/internal/models"
)

func TestRoleSetIsNotHierarchical(t *testing.T) {
	set := newRoleSet(models.RoleSecurity)
	require.True(t, set.allows(models.RoleSecurity))
	require.False(t, set.allows(models.RoleAdmin))
	require.Equal(t, "Forbidden: Access denied. Required roles: Security", set.message)
}

func TestRoleSetMessageListsRolesInOrder(t *testing.T) {
	set := newRoleSet(models.RoleAdmin, models.RoleSecurity, models.RoleAdmin)
	require.Equal(t, "Forbidden: Access denied. Required roles: Admin, Security", set.message)
	require.False(t, set.allows(models.RoleTeacher))
	require.True(t, newRoleSet().allows(models.RoleTeacher))
}
