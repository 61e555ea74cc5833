package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles() {
		parsed, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestScopeBreadthOrdering(t *testing.T) {
	assert.Greater(t, RoleAdmin.ScopeBreadth(), RoleManager.ScopeBreadth())
	assert.Greater(t, RoleManager.ScopeBreadth(), RoleTeamLead.ScopeBreadth())
	assert.Greater(t, RoleTeamLead.ScopeBreadth(), RoleUser.ScopeBreadth())
	assert.Equal(t, RoleUser.ScopeBreadth(), RoleAgent.ScopeBreadth())
}

func TestOrganizational(t *testing.T) {
	assert.True(t, RoleAdmin.Organizational())
	assert.True(t, RoleManager.Organizational())
	assert.True(t, RoleTeamLead.Organizational())
	assert.False(t, RoleUser.Organizational())
	assert.False(t, RoleAgent.Organizational())
}

func TestIdentityScopeHelpers(t *testing.T) {
	id := Identity{Role: RoleManager}

	// Unassigned scope never matches anything.
	assert.False(t, id.InBranch(uuid.New()))
	assert.False(t, id.InTeam(nil))

	b := uuid.New()
	id.BranchID = &b
	assert.True(t, id.InBranch(b))
	assert.False(t, id.InBranch(uuid.New()))

	tm := uuid.New()
	id.TeamID = &tm
	assert.True(t, id.InTeam(&tm))
	other := uuid.New()
	assert.False(t, id.InTeam(&other))
}
