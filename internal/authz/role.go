package authz

// Role is the global privilege tier. The zero-ish default for authenticated
// users is RoleMember; anonymous requests resolve to RoleGuest.
type Role string

const (
	RoleGuest         Role = "guest"
	RoleMember        Role = "member"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// rank orders roles by privilege: guest < member < moderator < administrator.
var rank = map[Role]int{
	RoleGuest:         0,
	RoleMember:        1,
	RoleModerator:     2,
	RoleAdministrator: 3,
}

// ParseRole maps a stored or session-provided string onto the closed enum.
// Unknown values are rejected rather than coerced.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := rank[r]
	return r, ok
}

// AtLeast reports whether r sits at or above other in the privilege order.
func (r Role) AtLeast(other Role) bool {
	return rank[r] >= rank[other]
}

// IsStaff reports whether the role carries global moderation privileges.
func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdministrator
}

type Permission string

const (
	PermCreatePosts Permission = "canCreatePosts"
	PermVote        Permission = "canVote"
	PermModerate    Permission = "canModerate"
	PermManageRoles Permission = "canManageRoles"
)

var rolePermissions = map[Role][]Permission{
	RoleGuest:         {},
	RoleMember:        {PermCreatePosts, PermVote},
	RoleModerator:     {PermCreatePosts, PermVote, PermModerate},
	RoleAdministrator: {PermCreatePosts, PermVote, PermModerate, PermManageRoles},
}

func (r Role) HasPermission(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}
