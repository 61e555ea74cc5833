// Package access centralizes every sheet access decision as a pure function
// of the actor's identity, the target sheet, and the actor's share grant on
// that sheet (if any). The engine performs no I/O: callers resolve the actor
// and sheet (rejecting not-found first) and look up the grant before asking
// for a decision. Every check fails closed.
//
// Edit precedence, applied in order with short-circuit on first match:
// admin > creator > branch/team scope > explicit edit share. Agents are
// strictly view-only: an edit share held by an agent grants visibility, never
// mutation.
package access

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
)

// CanAccessSheet decides read visibility of a sheet for an actor. grant is
// the actor's share on the sheet, or nil; expired grants count as absent.
func CanAccessSheet(actor identity.Identity, s *sheet.Sheet, grant *share.Share, now time.Time) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleManager:
		return actor.InBranch(s.BranchID)
	case identity.RoleTeamLead:
		return actor.InTeam(s.TeamID)
	case identity.RoleUser, identity.RoleAgent:
		return grant.Active(now)
	}
	return false
}

// CanEditSheet decides whether an actor may mutate sheet metadata (rename,
// archive, delete). Same scope rules as CanAccessSheet, except a user needs
// an unexpired edit-level share and an agent can never edit.
func CanEditSheet(actor identity.Identity, s *sheet.Sheet, grant *share.Share, now time.Time) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleManager:
		return actor.InBranch(s.BranchID)
	case identity.RoleTeamLead:
		return actor.InTeam(s.TeamID)
	case identity.RoleUser:
		return grant.Active(now) && grant.Level == share.LevelEdit
	}
	return false
}

// CanEditCell decides whether an actor may write cells of a sheet. Broader
// than CanEditSheet: the creator keeps cell-edit rights even after falling
// out of the sheet's scope, and an unexpired edit share works for any
// non-agent role, not just plain users.
func CanEditCell(actor identity.Identity, s *sheet.Sheet, grant *share.Share, now time.Time) bool {
	if actor.Role == identity.RoleAgent {
		return false
	}
	if actor.Role == identity.RoleAdmin {
		return true
	}
	if s.CreatedBy == actor.UserID {
		return true
	}
	if actor.Role == identity.RoleManager && actor.InBranch(s.BranchID) {
		return true
	}
	if actor.Role == identity.RoleTeamLead && actor.InTeam(s.TeamID) {
		return true
	}
	return grant.Active(now) && grant.Level == share.LevelEdit
}

// CanShareSheet decides whether an actor may grant, change, or revoke shares
// on a sheet. Sharing requires organizational authority over the sheet; the
// creator override and explicit shares do not apply here.
func CanShareSheet(actor identity.Identity, s *sheet.Sheet) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleManager:
		return actor.InBranch(s.BranchID)
	case identity.RoleTeamLead:
		return actor.InTeam(s.TeamID)
	}
	return false
}

// CanCreateSheet decides whether an actor may create a sheet anchored to the
// given branch. Admins and team leads may target any branch; managers only
// their own; users and agents never create sheets.
func CanCreateSheet(actor identity.Identity, branchID uuid.UUID) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleManager:
		return actor.InBranch(branchID)
	case identity.RoleTeamLead:
		return true
	}
	return false
}
