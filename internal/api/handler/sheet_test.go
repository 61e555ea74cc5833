package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetdesk/sheetdesk/internal/api/handler"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/cell"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
	"github.com/sheetdesk/sheetdesk/internal/team"
)

type sheetHandlerDeps struct {
	sheets   *mockSheetRepo
	cells    *mockCellRepo
	shares   *mockShareRepo
	branches *mockBranchRepo
	teams    *mockTeamRepo
	users    *mockUserRepo
	audits   *mockAuditRepo
	notifies *mockNotifyRepo
}

func newSheetHandler(d *sheetHandlerDeps) *handler.SheetHandler {
	if d.sheets == nil {
		d.sheets = &mockSheetRepo{}
	}
	if d.cells == nil {
		d.cells = &mockCellRepo{}
	}
	if d.shares == nil {
		d.shares = &mockShareRepo{}
	}
	if d.branches == nil {
		d.branches = &mockBranchRepo{}
	}
	if d.teams == nil {
		d.teams = &mockTeamRepo{}
	}
	if d.users == nil {
		d.users = &mockUserRepo{}
	}
	if d.audits == nil {
		d.audits = &mockAuditRepo{}
	}
	if d.notifies == nil {
		d.notifies = &mockNotifyRepo{}
	}
	return handler.NewSheetHandler(d.sheets, d.cells, d.shares, d.branches, d.teams, d.users,
		audit.NewRecorder(d.audits), notify.NewNotifier(d.notifies))
}

func TestSheetCreate_ManagerOwnBranch(t *testing.T) {
	branchID := uuid.New()
	actor := managerActor(branchID)
	managerID := actor.UserID

	d := &sheetHandlerDeps{
		users: &mockUserRepo{
			listIDsByBranchRolesFn: func(ctx context.Context, bID uuid.UUID, roles []identity.Role) ([]uuid.UUID, error) {
				return []uuid.UUID{managerID, uuid.New()}, nil
			},
		},
	}
	h := newSheetHandler(d)

	body := map[string]any{"name": "forecast", "branch_id": branchID.String()}
	req, w := makeRequest(t, http.MethodPost, "/api/sheets", body, actor, nil)
	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]any)
	assert.Equal(t, "forecast", data["name"])
	assert.Equal(t, branchID.String(), data["branch_id"])
	assert.Equal(t, float64(sheet.DefaultRows), data["rows"])
	assert.Equal(t, float64(sheet.DefaultColumns), data["columns"])

	require.Len(t, d.audits.entries, 1)
	assert.Equal(t, audit.ActionSheetCreated, d.audits.entries[0].Action)

	// The creating manager is skipped; the other branch manager is notified.
	require.Len(t, d.notifies.inserted, 1)
	assert.Equal(t, notify.TypeSheetCreated, d.notifies.inserted[0].Type)
	assert.NotEqual(t, managerID, d.notifies.inserted[0].UserID)
}

func TestSheetCreate_ManagerOtherBranch(t *testing.T) {
	actor := managerActor(uuid.New())
	h := newSheetHandler(&sheetHandlerDeps{})

	body := map[string]any{"name": "forecast", "branch_id": uuid.New().String()}
	req, w := makeRequest(t, http.MethodPost, "/api/sheets", body, actor, nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSheetCreate_UserAndAgentForbidden(t *testing.T) {
	for _, actor := range []*identity.Identity{userActor(), agentActor()} {
		t.Run(string(actor.Role), func(t *testing.T) {
			h := newSheetHandler(&sheetHandlerDeps{})
			body := map[string]any{"name": "x", "branch_id": uuid.New().String()}
			req, w := makeRequest(t, http.MethodPost, "/api/sheets", body, actor, nil)
			h.Create(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestSheetCreate_TeamMustBelongToBranch(t *testing.T) {
	branchID := uuid.New()
	teamID := uuid.New()
	actor := adminActor()

	d := &sheetHandlerDeps{
		teams: &mockTeamRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*team.Team, error) {
				return &team.Team{ID: id, BranchID: uuid.New(), Name: "ops"}, nil
			},
		},
	}
	h := newSheetHandler(d)

	body := map[string]any{"name": "x", "branch_id": branchID.String(), "team_id": teamID.String()}
	req, w := makeRequest(t, http.MethodPost, "/api/sheets", body, actor, nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	errs := env["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "team_id", errs[0].(map[string]any)["field"])
}

func TestSheetCreate_ValidationFailures(t *testing.T) {
	actor := adminActor()
	h := newSheetHandler(&sheetHandlerDeps{})

	zero := 0
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"branch_id": uuid.New().String()}},
		{"missing branch", map[string]any{"name": "x"}},
		{"bad branch id", map[string]any{"name": "x", "branch_id": "not-a-uuid"}},
		{"zero rows", map[string]any{"name": "x", "branch_id": uuid.New().String(), "rows": zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, w := makeRequest(t, http.MethodPost, "/api/sheets", tt.body, actor, nil)
			h.Create(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := parseEnvelope(t, w)
			assert.Equal(t, false, env["success"])
			assert.NotEmpty(t, env["errors"])
		})
	}
}

func TestSheetGetByID_NotFoundBeforePermission(t *testing.T) {
	h := newSheetHandler(&sheetHandlerDeps{})

	missing := uuid.New()
	req, w := makeRequest(t, http.MethodGet, "/api/sheets/"+missing.String(), nil, userActor(), map[string]string{"id": missing.String()})
	h.GetByID(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSheetGetByID_IncludesCells(t *testing.T) {
	branchID := uuid.New()
	actor := managerActor(branchID)
	s := sampleSheet(branchID)

	d := &sheetHandlerDeps{
		sheets: sheetRepoWith(s),
		cells: &mockCellRepo{
			listAllFn: func(ctx context.Context, sheetID uuid.UUID) ([]cell.Cell, error) {
				return []cell.Cell{
					{ID: uuid.New(), SheetID: sheetID, Row: 0, Col: 0, Value: "a", DataType: "text"},
				}, nil
			},
		},
	}
	h := newSheetHandler(d)

	req, w := makeRequest(t, http.MethodGet, "/api/sheets/"+s.ID.String(), nil, actor, map[string]string{"id": s.ID.String()})
	h.GetByID(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]any)
	assert.Equal(t, s.Name, data["name"])
	cells := data["cells"].([]any)
	require.Len(t, cells, 1)
	assert.Equal(t, "a", cells[0].(map[string]any)["value"])
}

func TestSheetGetByID_Forbidden(t *testing.T) {
	s := sampleSheet(uuid.New())
	h := newSheetHandler(&sheetHandlerDeps{sheets: sheetRepoWith(s)})

	req, w := makeRequest(t, http.MethodGet, "/api/sheets/"+s.ID.String(), nil, userActor(), map[string]string{"id": s.ID.String()})
	h.GetByID(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSheetList_Scoping(t *testing.T) {
	branchID := uuid.New()
	teamID := uuid.New()

	var captured sheet.ListFilter
	sheets := &mockSheetRepo{
		listFn: func(ctx context.Context, filter sheet.ListFilter) (*sheet.ListResult, error) {
			captured = filter
			return &sheet.ListResult{Sheets: []sheet.Sheet{}, Page: filter.Page, Limit: filter.Limit}, nil
		},
	}
	h := newSheetHandler(&sheetHandlerDeps{sheets: sheets})

	t.Run("admin sees everything", func(t *testing.T) {
		req, w := makeRequest(t, http.MethodGet, "/api/sheets", nil, adminActor(), nil)
		h.List(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, captured.BranchID)
		assert.Nil(t, captured.TeamID)
		assert.Nil(t, captured.SharedWithUserID)
	})

	t.Run("manager scoped to branch", func(t *testing.T) {
		req, w := makeRequest(t, http.MethodGet, "/api/sheets", nil, managerActor(branchID), nil)
		h.List(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.BranchID)
		assert.Equal(t, branchID, *captured.BranchID)
	})

	t.Run("team lead scoped to team", func(t *testing.T) {
		actor := &identity.Identity{UserID: uuid.New(), Username: "lead", Role: identity.RoleTeamLead, BranchID: &branchID, TeamID: &teamID}
		req, w := makeRequest(t, http.MethodGet, "/api/sheets", nil, actor, nil)
		h.List(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.TeamID)
		assert.Equal(t, teamID, *captured.TeamID)
	})

	t.Run("user scoped to live shares", func(t *testing.T) {
		actor := userActor()
		req, w := makeRequest(t, http.MethodGet, "/api/sheets", nil, actor, nil)
		h.List(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.SharedWithUserID)
		assert.Equal(t, actor.UserID, *captured.SharedWithUserID)
	})

	t.Run("search passes through", func(t *testing.T) {
		req, w := makeRequest(t, http.MethodGet, "/api/sheets?search=budget", nil, adminActor(), nil)
		h.List(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.Search)
		assert.Equal(t, "budget", *captured.Search)
	})
}

func TestSheetList_ArchivedFilter(t *testing.T) {
	var captured sheet.ListFilter
	sheets := &mockSheetRepo{
		listFn: func(ctx context.Context, filter sheet.ListFilter) (*sheet.ListResult, error) {
			captured = filter
			return &sheet.ListResult{Sheets: []sheet.Sheet{}, Page: 1, Limit: 20}, nil
		},
	}
	h := newSheetHandler(&sheetHandlerDeps{sheets: sheets})

	tests := []struct {
		name    string
		query   string
		include bool
	}{
		{"absent param includes archived", "", true},
		{"archived=true includes archived", "?archived=true", true},
		{"archived=false excludes archived", "?archived=false", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, w := makeRequest(t, http.MethodGet, "/api/sheets"+tt.query, nil, adminActor(), nil)
			h.List(w, req)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.include, captured.IncludeArchived)
		})
	}
}

func TestSheetList_TeamLeadWithoutTeam(t *testing.T) {
	branchID := uuid.New()
	actor := &identity.Identity{UserID: uuid.New(), Username: "lead", Role: identity.RoleTeamLead, BranchID: &branchID}

	sheets := &mockSheetRepo{
		listFn: func(ctx context.Context, filter sheet.ListFilter) (*sheet.ListResult, error) {
			t.Fatal("repository must not be queried for a team lead without a team")
			return nil, nil
		},
	}
	h := newSheetHandler(&sheetHandlerDeps{sheets: sheets})

	req, w := makeRequest(t, http.MethodGet, "/api/sheets", nil, actor, nil)
	h.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.Empty(t, env["data"])
	pagination := env["pagination"].(map[string]any)
	assert.Equal(t, float64(0), pagination["total"])
}

func TestSheetUpdate(t *testing.T) {
	branchID := uuid.New()
	actor := managerActor(branchID)
	s := sampleSheet(branchID)

	newName := "q2-budget"
	d := &sheetHandlerDeps{
		sheets: &mockSheetRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*sheet.Sheet, error) {
				if id == s.ID {
					return s, nil
				}
				return nil, sheet.ErrNotFound
			},
			updateFn: func(ctx context.Context, id uuid.UUID, fields sheet.UpdateFields) (*sheet.Sheet, error) {
				updated := *s
				if fields.Name != nil {
					updated.Name = *fields.Name
				}
				if fields.IsArchived != nil {
					updated.IsArchived = *fields.IsArchived
				}
				return &updated, nil
			},
		},
	}
	h := newSheetHandler(d)

	body := map[string]any{"name": newName, "is_archived": true}
	req, w := makeRequest(t, http.MethodPut, "/api/sheets/"+s.ID.String(), body, actor, map[string]string{"id": s.ID.String()})
	h.Update(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]any)
	assert.Equal(t, newName, data["name"])
	assert.Equal(t, true, data["is_archived"])

	require.Len(t, d.audits.entries, 1)
	assert.Equal(t, audit.ActionSheetUpdated, d.audits.entries[0].Action)
	assert.Equal(t, s.Name, d.audits.entries[0].OldValues["name"])
	assert.Equal(t, newName, d.audits.entries[0].NewValues["name"])

	// The creator was not the actor, so they get a notification.
	require.Len(t, d.notifies.inserted, 1)
	assert.Equal(t, s.CreatedBy, d.notifies.inserted[0].UserID)
}

func TestSheetUpdate_ViewShareForbidden(t *testing.T) {
	s := sampleSheet(uuid.New())
	actor := userActor()
	grant := editShare(s.ID, actor.UserID)
	grant.Level = share.LevelView

	h := newSheetHandler(&sheetHandlerDeps{sheets: sheetRepoWith(s), shares: shareRepoWith(grant)})

	body := map[string]any{"name": "renamed"}
	req, w := makeRequest(t, http.MethodPut, "/api/sheets/"+s.ID.String(), body, actor, map[string]string{"id": s.ID.String()})
	h.Update(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSheetDelete(t *testing.T) {
	branchID := uuid.New()
	actor := managerActor(branchID)
	s := sampleSheet(branchID)

	var deletedID uuid.UUID
	d := &sheetHandlerDeps{
		sheets: &mockSheetRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*sheet.Sheet, error) {
				return s, nil
			},
			deleteFn: func(ctx context.Context, id uuid.UUID) error {
				deletedID = id
				return nil
			},
		},
	}
	h := newSheetHandler(d)

	req, w := makeRequest(t, http.MethodDelete, "/api/sheets/"+s.ID.String(), nil, actor, map[string]string{"id": s.ID.String()})
	h.Delete(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.ID, deletedID)
	require.Len(t, d.audits.entries, 1)
	assert.Equal(t, audit.ActionSheetDeleted, d.audits.entries[0].Action)
	assert.Equal(t, s.Name, d.audits.entries[0].OldValues["name"])
}

func TestSheetDelete_SharePermissions(t *testing.T) {
	s := sampleSheet(uuid.New())
	actor := userActor()

	t.Run("view share cannot delete", func(t *testing.T) {
		grant := editShare(s.ID, actor.UserID)
		grant.Level = share.LevelView
		h := newSheetHandler(&sheetHandlerDeps{sheets: sheetRepoWith(s), shares: shareRepoWith(grant)})

		req, w := makeRequest(t, http.MethodDelete, "/api/sheets/"+s.ID.String(), nil, actor, map[string]string{"id": s.ID.String()})
		h.Delete(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("edit share can delete", func(t *testing.T) {
		grant := editShare(s.ID, actor.UserID)
		h := newSheetHandler(&sheetHandlerDeps{sheets: sheetRepoWith(s), shares: shareRepoWith(grant)})

		req, w := makeRequest(t, http.MethodDelete, "/api/sheets/"+s.ID.String(), nil, actor, map[string]string{"id": s.ID.String()})
		h.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
