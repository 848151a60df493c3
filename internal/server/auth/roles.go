package auth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/skillbridge/auth/internal/common"
)

// Role is the authorisation tier assigned to a principal.
type Role string

const (
	RoleMentee Role = "MENTEE"
	RoleMentor Role = "MENTOR"
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

// RoleAuthorityPrefix is prepended to a role name to form its canonical
// role authority, e.g. "ROLE_ADMIN".
const RoleAuthorityPrefix = "ROLE_"

// Permission is a fine-grained capability string.
type Permission string

const (
	PermAdminRead   Permission = "admin:read"
	PermAdminUpdate Permission = "admin:update"
	PermAdminCreate Permission = "admin:create"
	PermAdminDelete Permission = "admin:delete"

	PermMentorReadOwnProjects Permission = "mentor:read_own_projects"
	PermMentorCreateProjects  Permission = "mentor:create_projects"
	PermMentorReviewMentee    Permission = "mentor:review_mentee"

	PermMenteeViewProjects Permission = "mentee:view_projects"
	PermMenteeApplyProject Permission = "mentee:apply_project"

	PermClientViewApplications Permission = "client:view_applications"
	PermClientPostJob          Permission = "client:post_job"
)

// Roles lists every valid role.
var Roles = []Role{RoleMentee, RoleMentor, RoleClient, RoleAdmin}

// rolePermissions is the single source of truth for the authority model.
var rolePermissions = map[Role][]Permission{
	RoleMentee: {
		PermMenteeViewProjects,
		PermMenteeApplyProject,
	},
	RoleMentor: {
		PermMentorReadOwnProjects,
		PermMentorCreateProjects,
		PermMentorReviewMentee,
	},
	RoleClient: {
		PermClientViewApplications,
		PermClientPostJob,
	},
	RoleAdmin: {
		PermAdminRead,
		PermAdminUpdate,
		PermAdminDelete,
		PermAdminCreate,
		PermMentorCreateProjects, // acts as a super-mentor
		PermClientPostJob,
	},
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Authority returns the canonical role authority string.
func (r Role) Authority() string {
	return RoleAuthorityPrefix + string(r)
}

// PermissionsFor returns a copy of the permissions granted to r, or nil for
// an unknown role.
func PermissionsFor(r Role) []Permission {
	return slices.Clone(rolePermissions[r])
}

// AuthoritiesFor returns r's permission strings followed by its role
// authority. Unknown roles have no authorities.
func AuthoritiesFor(r Role) []string {
	perms, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(perms)+1)
	for _, p := range perms {
		out = append(out, string(p))
	}
	return append(out, r.Authority())
}
