package identity

import "fmt"

// Role is the closed set of user roles. Roles are ordered by scope breadth:
// an admin's authority covers everything, a manager's covers one branch, a
// team lead's covers one team, and users and agents have no organizational
// scope of their own (they only reach sheets through explicit shares).
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleTeamLead Role = "team_lead"
	RoleUser     Role = "user"
	RoleAgent    Role = "agent"
)

// scopeBreadth ranks roles by how wide their automatic authority reaches.
// user and agent share the lowest rank: neither has organizational scope.
var scopeBreadth = map[Role]int{
	RoleAdmin:    3,
	RoleManager:  2,
	RoleTeamLead: 1,
	RoleUser:     0,
	RoleAgent:    0,
}

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := scopeBreadth[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, ok := scopeBreadth[r]
	return ok
}

// ScopeBreadth returns the rank of r in the scope-breadth ordering.
func (r Role) ScopeBreadth() int {
	return scopeBreadth[r]
}

// Organizational reports whether r carries automatic scope-based authority
// (admin, manager, team_lead). Users and agents only reach sheets via shares.
func (r Role) Organizational() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleTeamLead
}

// AllRoles lists every role, broadest scope first.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTeamLead, RoleUser, RoleAgent}
}
