package auth

import (
	"strings"
	"testing"

	"github.com/skillbridge/auth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthoritiesFor_Table(t *testing.T) {
	tests := []struct {
		role Role
		want []string
	}{
		{RoleMentee, []string{"mentee:view_projects", "mentee:apply_project", "ROLE_MENTEE"}},
		{RoleMentor, []string{"mentor:read_own_projects", "mentor:create_projects", "mentor:review_mentee", "ROLE_MENTOR"}},
		{RoleClient, []string{"client:view_applications", "client:post_job", "ROLE_CLIENT"}},
		{RoleAdmin, []string{"admin:read", "admin:update", "admin:delete", "admin:create", "mentor:create_projects", "client:post_job", "ROLE_ADMIN"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, AuthoritiesFor(tt.role))
		})
	}
}

func TestEveryRole_HasPermissionsAndOneRoleAuthority(t *testing.T) {
	for _, r := range Roles {
		require.NotEmpty(t, PermissionsFor(r), r)

		var roleAuthorities int
		for _, a := range AuthoritiesFor(r) {
			if strings.HasPrefix(a, RoleAuthorityPrefix) {
				roleAuthorities++
				assert.Equal(t, "ROLE_"+string(r), a)
			}
		}
		assert.Equal(t, 1, roleAuthorities, r)
	}
}

func TestUnknownRole(t *testing.T) {
	assert.False(t, Role("GUEST").Valid())
	assert.Nil(t, PermissionsFor("GUEST"))
	assert.Nil(t, AuthoritiesFor("GUEST"))
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	perms := PermissionsFor(RoleMentee)
	perms[0] = PermAdminDelete
	assert.NotContains(t, PermissionsFor(RoleMentee), PermAdminDelete)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" mentor ")
	require.NoError(t, err)
	assert.Equal(t, RoleMentor, r)

	_, err = ParseRole("root")
	require.ErrorIs(t, err, common.ErrInvalidRole)

	_, err = ParseRole("")
	require.ErrorIs(t, err, common.ErrInvalidRole)
}
