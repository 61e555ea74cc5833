package access_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sheetdesk/sheetdesk/internal/access"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
)

var (
	branchA = uuid.New()
	branchB = uuid.New()
	teamA   = uuid.New()
	teamB   = uuid.New()
	creator = uuid.New()
	now     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func actorWith(role identity.Role, branchID, teamID *uuid.UUID) identity.Identity {
	return identity.Identity{
		UserID:   uuid.New(),
		Username: "actor",
		Role:     role,
		BranchID: branchID,
		TeamID:   teamID,
	}
}

func sheetIn(branchID uuid.UUID, teamID *uuid.UUID) *sheet.Sheet {
	return &sheet.Sheet{
		ID:        uuid.New(),
		Name:      "q1-forecast",
		BranchID:  branchID,
		TeamID:    teamID,
		CreatedBy: creator,
		Rows:      100,
		Columns:   26,
	}
}

func grantFor(actor identity.Identity, s *sheet.Sheet, level share.Level, expiresAt *time.Time) *share.Share {
	return &share.Share{
		ID:               uuid.New(),
		SheetID:          s.ID,
		SharedWithUserID: actor.UserID,
		Level:            level,
		SharedBy:         creator,
		SharedAt:         now.Add(-time.Hour),
		ExpiresAt:        expiresAt,
	}
}

func TestCanAccessSheet_RoleScopes(t *testing.T) {
	s := sheetIn(branchA, &teamA)

	tests := []struct {
		name  string
		actor identity.Identity
		grant *share.Share
		want  bool
	}{
		{"admin sees everything", actorWith(identity.RoleAdmin, nil, nil), nil, true},
		{"manager in branch", actorWith(identity.RoleManager, &branchA, nil), nil, true},
		{"manager in other branch", actorWith(identity.RoleManager, &branchB, nil), nil, false},
		{"manager without branch", actorWith(identity.RoleManager, nil, nil), nil, false},
		{"team lead in team", actorWith(identity.RoleTeamLead, &branchA, &teamA), nil, true},
		{"team lead in other team", actorWith(identity.RoleTeamLead, &branchA, &teamB), nil, false},
		{"user without share", actorWith(identity.RoleUser, &branchA, nil), nil, false},
		{"agent without share", actorWith(identity.RoleAgent, nil, nil), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanAccessSheet(tt.actor, s, tt.grant, now))
		})
	}
}

func TestCanAccessSheet_TeamLeadNeedsTeamOnSheet(t *testing.T) {
	// A sheet with no team assignment is invisible to the team-lead scope.
	s := sheetIn(branchA, nil)
	lead := actorWith(identity.RoleTeamLead, &branchA, &teamA)

	assert.False(t, access.CanAccessSheet(lead, s, nil, now))
}

func TestCanAccessSheet_ViewShare(t *testing.T) {
	s := sheetIn(branchA, nil)
	u := actorWith(identity.RoleUser, nil, nil)

	assert.True(t, access.CanAccessSheet(u, s, grantFor(u, s, share.LevelView, nil), now))
}

func TestCanAccessSheet_ExpiredShareIsAbsent(t *testing.T) {
	s := sheetIn(branchA, nil)
	u := actorWith(identity.RoleUser, nil, nil)

	expired := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, access.CanAccessSheet(u, s, grantFor(u, s, share.LevelEdit, &expired), now))
	assert.True(t, access.CanAccessSheet(u, s, grantFor(u, s, share.LevelEdit, &future), now))
}

func TestCanEditSheet_UserNeedsEditShare(t *testing.T) {
	s := sheetIn(branchA, nil)
	u := actorWith(identity.RoleUser, nil, nil)

	assert.False(t, access.CanEditSheet(u, s, nil, now))
	assert.False(t, access.CanEditSheet(u, s, grantFor(u, s, share.LevelView, nil), now))
	assert.True(t, access.CanEditSheet(u, s, grantFor(u, s, share.LevelEdit, nil), now))
}

// Anyone who can edit can also read.
func TestEditImpliesRead(t *testing.T) {
	s := sheetIn(branchA, &teamA)

	u := actorWith(identity.RoleUser, nil, nil)
	actors := []struct {
		name  string
		actor identity.Identity
		grant *share.Share
	}{
		{"admin", actorWith(identity.RoleAdmin, nil, nil), nil},
		{"manager", actorWith(identity.RoleManager, &branchA, nil), nil},
		{"team lead", actorWith(identity.RoleTeamLead, &branchA, &teamA), nil},
		{"user with edit share", u, grantFor(u, s, share.LevelEdit, nil)},
	}
	for _, tt := range actors {
		t.Run(tt.name, func(t *testing.T) {
			if access.CanEditSheet(tt.actor, s, tt.grant, now) {
				assert.True(t, access.CanAccessSheet(tt.actor, s, tt.grant, now))
			}
		})
	}
}

func TestCanEditCell_AgentNeverEdits(t *testing.T) {
	s := sheetIn(branchA, &teamA)
	agent := actorWith(identity.RoleAgent, &branchA, &teamA)

	// Even an explicit edit share does not let an agent write.
	assert.False(t, access.CanEditCell(agent, s, grantFor(agent, s, share.LevelEdit, nil), now))
	assert.True(t, access.CanAccessSheet(agent, s, grantFor(agent, s, share.LevelEdit, nil), now))
}

func TestCanEditCell_CreatorKeepsAccess(t *testing.T) {
	// The creator moved out of the sheet's branch but still edits cells.
	s := sheetIn(branchA, nil)
	moved := identity.Identity{UserID: creator, Role: identity.RoleTeamLead, BranchID: &branchB, TeamID: &teamB}

	assert.True(t, access.CanEditCell(moved, s, nil, now))
}

func TestCanEditCell_ScopeAndShare(t *testing.T) {
	s := sheetIn(branchA, &teamA)

	u := actorWith(identity.RoleUser, nil, nil)
	tests := []struct {
		name  string
		actor identity.Identity
		grant *share.Share
		want  bool
	}{
		{"admin", actorWith(identity.RoleAdmin, nil, nil), nil, true},
		{"manager in branch", actorWith(identity.RoleManager, &branchA, nil), nil, true},
		{"manager elsewhere", actorWith(identity.RoleManager, &branchB, nil), nil, false},
		{"team lead in team", actorWith(identity.RoleTeamLead, &branchA, &teamA), nil, true},
		{"team lead elsewhere", actorWith(identity.RoleTeamLead, &branchA, &teamB), nil, false},
		{"user with edit share", u, grantFor(u, s, share.LevelEdit, nil), true},
		{"user with view share", u, grantFor(u, s, share.LevelView, nil), false},
		{"user without share", u, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanEditCell(tt.actor, s, tt.grant, now))
		})
	}
}

func TestCanEditCell_ViewShareHolderCannotWrite(t *testing.T) {
	s := sheetIn(branchA, nil)
	u := actorWith(identity.RoleUser, nil, nil)
	grant := grantFor(u, s, share.LevelView, nil)

	assert.True(t, access.CanAccessSheet(u, s, grant, now))
	assert.False(t, access.CanEditCell(u, s, grant, now))
}

func TestCanShareSheet_OrganizationalOnly(t *testing.T) {
	s := sheetIn(branchA, &teamA)

	u := actorWith(identity.RoleUser, nil, nil)
	tests := []struct {
		name  string
		actor identity.Identity
		want  bool
	}{
		{"admin", actorWith(identity.RoleAdmin, nil, nil), true},
		{"manager in branch", actorWith(identity.RoleManager, &branchA, nil), true},
		{"manager elsewhere", actorWith(identity.RoleManager, &branchB, nil), false},
		{"team lead in team", actorWith(identity.RoleTeamLead, &branchA, &teamA), true},
		{"team lead elsewhere", actorWith(identity.RoleTeamLead, &branchA, &teamB), false},
		{"user", u, false},
		{"agent", actorWith(identity.RoleAgent, &branchA, &teamA), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanShareSheet(tt.actor, s))
		})
	}
}

func TestCanShareSheet_ShareHolderCannotReshare(t *testing.T) {
	// Holding an edit share conveys no authority over shares themselves.
	s := sheetIn(branchA, nil)
	u := actorWith(identity.RoleUser, nil, nil)

	assert.True(t, access.CanEditCell(u, s, grantFor(u, s, share.LevelEdit, nil), now))
	assert.False(t, access.CanShareSheet(u, s))
}

func TestCanCreateSheet(t *testing.T) {
	tests := []struct {
		name   string
		actor  identity.Identity
		branch uuid.UUID
		want   bool
	}{
		{"admin any branch", actorWith(identity.RoleAdmin, nil, nil), branchB, true},
		{"manager own branch", actorWith(identity.RoleManager, &branchA, nil), branchA, true},
		{"manager other branch", actorWith(identity.RoleManager, &branchA, nil), branchB, false},
		{"team lead other branch", actorWith(identity.RoleTeamLead, &branchA, &teamA), branchB, true},
		{"user", actorWith(identity.RoleUser, &branchA, nil), branchA, false},
		{"agent", actorWith(identity.RoleAgent, &branchA, nil), branchA, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanCreateSheet(tt.actor, tt.branch))
		})
	}
}
