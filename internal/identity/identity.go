package identity

import "github.com/google/uuid"

// Identity describes an authenticated actor: who they are, what role they
// hold, and which branch/team anchors their organizational scope. It is
// resolved once per request by the auth middleware and consumed by every
// access decision.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     Role
	BranchID *uuid.UUID // nil when the user has no branch assignment
	TeamID   *uuid.UUID // nil when the user has no team assignment
}

// InBranch reports whether the actor's branch scope matches the given branch.
func (id Identity) InBranch(branchID uuid.UUID) bool {
	return id.BranchID != nil && *id.BranchID == branchID
}

// InTeam reports whether the actor's team scope matches the given team.
// A nil team on either side never matches.
func (id Identity) InTeam(teamID *uuid.UUID) bool {
	return id.TeamID != nil && teamID != nil && *id.TeamID == *teamID
}
