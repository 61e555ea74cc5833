package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/branch"
	"github.com/sheetdesk/sheetdesk/internal/cell"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
	"github.com/sheetdesk/sheetdesk/internal/team"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// --- Mock sheet repository ---

type mockSheetRepo struct {
	createFn  func(ctx context.Context, s *sheet.Sheet) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*sheet.Sheet, error)
	listFn    func(ctx context.Context, filter sheet.ListFilter) (*sheet.ListResult, error)
	updateFn  func(ctx context.Context, id uuid.UUID, fields sheet.UpdateFields) (*sheet.Sheet, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSheetRepo) Create(ctx context.Context, s *sheet.Sheet) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	s.ID = uuid.New()
	if s.Rows == 0 {
		s.Rows = sheet.DefaultRows
	}
	if s.Columns == 0 {
		s.Columns = sheet.DefaultColumns
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return nil
}

func (m *mockSheetRepo) GetByID(ctx context.Context, id uuid.UUID) (*sheet.Sheet, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, sheet.ErrNotFound
}

func (m *mockSheetRepo) List(ctx context.Context, filter sheet.ListFilter) (*sheet.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &sheet.ListResult{Sheets: []sheet.Sheet{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockSheetRepo) Update(ctx context.Context, id uuid.UUID, fields sheet.UpdateFields) (*sheet.Sheet, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, sheet.ErrNotFound
}

func (m *mockSheetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock cell repository ---

type mockCellRepo struct {
	upsertFn      func(ctx context.Context, c *cell.Cell) (bool, error)
	getByKeyFn    func(ctx context.Context, sheetID uuid.UUID, row, col int) (*cell.Cell, error)
	deleteByKeyFn func(ctx context.Context, sheetID uuid.UUID, row, col int) (*cell.Cell, error)
	listFn        func(ctx context.Context, sheetID uuid.UUID, page, limit int) (*cell.ListResult, error)
	listAllFn     func(ctx context.Context, sheetID uuid.UUID) ([]cell.Cell, error)
}

func (m *mockCellRepo) Upsert(ctx context.Context, c *cell.Cell) (bool, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, c)
	}
	c.ID = uuid.New()
	c.LastModifiedAt = time.Now().UTC()
	return true, nil
}

func (m *mockCellRepo) GetByKey(ctx context.Context, sheetID uuid.UUID, row, col int) (*cell.Cell, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, sheetID, row, col)
	}
	return nil, cell.ErrNotFound
}

func (m *mockCellRepo) DeleteByKey(ctx context.Context, sheetID uuid.UUID, row, col int) (*cell.Cell, error) {
	if m.deleteByKeyFn != nil {
		return m.deleteByKeyFn(ctx, sheetID, row, col)
	}
	return nil, cell.ErrNotFound
}

func (m *mockCellRepo) List(ctx context.Context, sheetID uuid.UUID, page, limit int) (*cell.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, sheetID, page, limit)
	}
	return &cell.ListResult{Cells: []cell.Cell{}, Page: page, Limit: limit}, nil
}

func (m *mockCellRepo) ListAll(ctx context.Context, sheetID uuid.UUID) ([]cell.Cell, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, sheetID)
	}
	return []cell.Cell{}, nil
}

// --- Mock share repository ---

type mockShareRepo struct {
	upsertFn      func(ctx context.Context, s *share.Share) error
	getForUserFn  func(ctx context.Context, sheetID, userID uuid.UUID) (*share.Share, error)
	listBySheetFn func(ctx context.Context, sheetID uuid.UUID) ([]share.Share, error)
	updateLevelFn func(ctx context.Context, sheetID, userID uuid.UUID, level share.Level) (*share.Share, error)
	deleteFn      func(ctx context.Context, sheetID, userID uuid.UUID) (*share.Share, error)
}

func (m *mockShareRepo) Upsert(ctx context.Context, s *share.Share) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, s)
	}
	s.ID = uuid.New()
	s.SharedAt = time.Now().UTC()
	return nil
}

func (m *mockShareRepo) GetForUser(ctx context.Context, sheetID, userID uuid.UUID) (*share.Share, error) {
	if m.getForUserFn != nil {
		return m.getForUserFn(ctx, sheetID, userID)
	}
	return nil, share.ErrNotFound
}

func (m *mockShareRepo) ListBySheet(ctx context.Context, sheetID uuid.UUID) ([]share.Share, error) {
	if m.listBySheetFn != nil {
		return m.listBySheetFn(ctx, sheetID)
	}
	return []share.Share{}, nil
}

func (m *mockShareRepo) UpdateLevel(ctx context.Context, sheetID, userID uuid.UUID, level share.Level) (*share.Share, error) {
	if m.updateLevelFn != nil {
		return m.updateLevelFn(ctx, sheetID, userID, level)
	}
	return nil, share.ErrNotFound
}

func (m *mockShareRepo) Delete(ctx context.Context, sheetID, userID uuid.UUID) (*share.Share, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, sheetID, userID)
	}
	return nil, share.ErrNotFound
}

// --- Mock user repository ---

type mockUserRepo struct {
	createFn               func(ctx context.Context, u *user.User) error
	getByIDFn              func(ctx context.Context, id uuid.UUID) (*user.User, error)
	getByEmailFn           func(ctx context.Context, email string) (*user.User, error)
	listFn                 func(ctx context.Context, filter user.ListFilter) (*user.ListResult, error)
	updateFn               func(ctx context.Context, id uuid.UUID, fields user.UpdateFields) (*user.User, error)
	deactivateFn           func(ctx context.Context, id uuid.UUID) error
	listIDsByBranchRolesFn func(ctx context.Context, branchID uuid.UUID, roles []identity.Role) ([]uuid.UUID, error)
	listIDsByBranchFn      func(ctx context.Context, branchID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context, filter user.ListFilter) (*user.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &user.ListResult{Users: []user.User{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id uuid.UUID, fields user.UpdateFields) (*user.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) { return 0, nil }

func (m *mockUserRepo) ListIDsByBranchRoles(ctx context.Context, branchID uuid.UUID, roles []identity.Role) ([]uuid.UUID, error) {
	if m.listIDsByBranchRolesFn != nil {
		return m.listIDsByBranchRolesFn(ctx, branchID, roles)
	}
	return []uuid.UUID{}, nil
}

func (m *mockUserRepo) ListIDsByBranch(ctx context.Context, branchID uuid.UUID) ([]uuid.UUID, error) {
	if m.listIDsByBranchFn != nil {
		return m.listIDsByBranchFn(ctx, branchID)
	}
	return []uuid.UUID{}, nil
}

// --- Mock branch repository ---

type mockBranchRepo struct {
	createFn     func(ctx context.Context, b *branch.Branch) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*branch.Branch, error)
	listFn       func(ctx context.Context, filter branch.ListFilter) (*branch.ListResult, error)
	updateFn     func(ctx context.Context, id uuid.UUID, fields branch.UpdateFields) (*branch.Branch, error)
	deactivateFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockBranchRepo) Create(ctx context.Context, b *branch.Branch) error {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	b.ID = uuid.New()
	b.IsActive = true
	return nil
}

func (m *mockBranchRepo) GetByID(ctx context.Context, id uuid.UUID) (*branch.Branch, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &branch.Branch{ID: id, Name: "hq", IsActive: true}, nil
}

func (m *mockBranchRepo) List(ctx context.Context, filter branch.ListFilter) (*branch.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &branch.ListResult{Branches: []branch.Branch{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockBranchRepo) Update(ctx context.Context, id uuid.UUID, fields branch.UpdateFields) (*branch.Branch, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, branch.ErrNotFound
}

func (m *mockBranchRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id)
	}
	return nil
}

// --- Mock team repository ---

type mockTeamRepo struct {
	createFn       func(ctx context.Context, t *team.Team) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*team.Team, error)
	listByBranchFn func(ctx context.Context, branchID uuid.UUID) ([]team.Team, error)
	deactivateFn   func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTeamRepo) Create(ctx context.Context, t *team.Team) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = uuid.New()
	t.IsActive = true
	return nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, team.ErrNotFound
}

func (m *mockTeamRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]team.Team, error) {
	if m.listByBranchFn != nil {
		return m.listByBranchFn(ctx, branchID)
	}
	return []team.Team{}, nil
}

func (m *mockTeamRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id)
	}
	return nil
}

// --- Audit / notify / mail sinks ---

type mockAuditRepo struct {
	entries []*audit.Entry
	listFn  func(ctx context.Context, filter audit.ListFilter) (*audit.ListResult, error)
}

func (m *mockAuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, filter audit.ListFilter) (*audit.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &audit.ListResult{Entries: []audit.Entry{}, Page: filter.Page, Limit: filter.Limit}, nil
}

type mockNotifyRepo struct {
	inserted      []notify.Notification
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*notify.Notification, error)
	listFn        func(ctx context.Context, filter notify.ListFilter) (*notify.ListResult, error)
	unreadCountFn func(ctx context.Context, userID uuid.UUID) (int, error)
	markReadFn    func(ctx context.Context, id uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) error
	deleteFn      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockNotifyRepo) Insert(ctx context.Context, n *notify.Notification) error {
	m.inserted = append(m.inserted, *n)
	return nil
}

func (m *mockNotifyRepo) InsertMany(ctx context.Context, ns []notify.Notification) error {
	m.inserted = append(m.inserted, ns...)
	return nil
}

func (m *mockNotifyRepo) GetByID(ctx context.Context, id uuid.UUID) (*notify.Notification, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, notify.ErrNotFound
}

func (m *mockNotifyRepo) List(ctx context.Context, filter notify.ListFilter) (*notify.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &notify.ListResult{Notifications: []notify.Notification{}, Page: filter.Page, Limit: filter.Limit}, nil
}

func (m *mockNotifyRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockNotifyRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, id)
	}
	return nil
}

func (m *mockNotifyRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(ctx, userID)
	}
	return nil
}

func (m *mockNotifyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockMailer struct {
	sharedEmails  []string
	welcomeEmails []string
}

func (m *mockMailer) SendSheetShared(ctx context.Context, to, recipientName, sheetName, senderName string) error {
	m.sharedEmails = append(m.sharedEmails, to)
	return nil
}

func (m *mockMailer) SendUserCreated(ctx context.Context, to, username, tempPassword string) error {
	m.welcomeEmails = append(m.welcomeEmails, to)
	return nil
}

// --- Request helpers ---

func makeRequest(t *testing.T, method, path string, body any, actor *identity.Identity, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	if actor != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), actor))
	}

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, httptest.NewRecorder()
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// --- Common fixtures ---

func adminActor() *identity.Identity {
	return &identity.Identity{UserID: uuid.New(), Username: "root", Role: identity.RoleAdmin}
}

func managerActor(branchID uuid.UUID) *identity.Identity {
	return &identity.Identity{UserID: uuid.New(), Username: "mgr", Role: identity.RoleManager, BranchID: &branchID}
}

func userActor() *identity.Identity {
	return &identity.Identity{UserID: uuid.New(), Username: "joe", Role: identity.RoleUser}
}

func agentActor() *identity.Identity {
	return &identity.Identity{UserID: uuid.New(), Username: "bot", Role: identity.RoleAgent}
}

func sampleSheet(branchID uuid.UUID) *sheet.Sheet {
	now := time.Now().UTC()
	return &sheet.Sheet{
		ID:        uuid.New(),
		Name:      "q1-budget",
		BranchID:  branchID,
		CreatedBy: uuid.New(),
		Rows:      100,
		Columns:   26,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
