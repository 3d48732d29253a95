package domain

import "fmt"

// Role is a user's authorization level. The numeric values are persisted and
// carried in access tokens.
type Role int

const (
	RoleUser       Role = 1
	RoleTeamLeader Role = 2
	RoleAdmin      Role = 3
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleUser, RoleTeamLeader, RoleAdmin}
}

// IsValid checks whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

// IsElevated reports whether r may view other users' data and manage aspects.
func (r Role) IsElevated() bool {
	return r == RoleTeamLeader || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleTeamLeader:
		return "team_leader"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}
