package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sheetdesk/sheetdesk/internal/api/handler"
	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/auth"
	"github.com/sheetdesk/sheetdesk/internal/branch"
	"github.com/sheetdesk/sheetdesk/internal/cell"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/mailer"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
	"github.com/sheetdesk/sheetdesk/internal/team"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	AuthService *auth.Service
	UserRepo    user.Repository
	BranchRepo  branch.Repository
	TeamRepo    team.Repository
	SheetRepo   sheet.Repository
	CellRepo    cell.Repository
	ShareRepo   share.Repository
	NotifyRepo  notify.Repository
	AuditRepo   audit.Repository
	Recorder    *audit.Recorder
	Notifier    *notify.Notifier
	Mailer      mailer.Mailer
	DBPinger    handler.DBPinger
	Version     string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.UserRepo, deps.Recorder)
	userHandler := handler.NewUserHandler(deps.UserRepo, deps.AuthService, deps.Recorder, deps.Notifier, deps.Mailer)
	branchHandler := handler.NewBranchHandler(deps.BranchRepo, deps.UserRepo, deps.Recorder)
	teamHandler := handler.NewTeamHandler(deps.TeamRepo, deps.BranchRepo, deps.Recorder)
	sheetHandler := handler.NewSheetHandler(deps.SheetRepo, deps.CellRepo, deps.ShareRepo, deps.BranchRepo, deps.TeamRepo, deps.UserRepo, deps.Recorder, deps.Notifier)
	cellHandler := handler.NewCellHandler(deps.CellRepo, deps.SheetRepo, deps.ShareRepo, deps.Recorder)
	shareHandler := handler.NewShareHandler(deps.ShareRepo, deps.SheetRepo, deps.UserRepo, deps.Recorder, deps.Notifier, deps.Mailer)
	notificationHandler := handler.NewNotificationHandler(deps.NotifyRepo)
	activityHandler := handler.NewActivityLogHandler(deps.AuditRepo, deps.UserRepo)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.AuthService, deps.UserRepo))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/refresh", authHandler.Refresh)

			r.Route("/sheets", func(r chi.Router) {
				r.Get("/", sheetHandler.List)
				r.Post("/", sheetHandler.Create)
				r.Get("/{id}", sheetHandler.GetByID)
				r.Put("/{id}", sheetHandler.Update)
				r.Delete("/{id}", sheetHandler.Delete)

				r.Get("/{id}/cells", cellHandler.List)
				r.Post("/{id}/cells", cellHandler.Save)
				r.Delete("/{id}/cells/{row}/{col}", cellHandler.Delete)

				r.Get("/{id}/shares", shareHandler.List)
				r.Post("/{id}/share", shareHandler.Create)
				r.Put("/{id}/shares/{userId}", shareHandler.Update)
				r.Delete("/{id}/shares/{userId}", shareHandler.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(middleware.RequireRole(identity.RoleAdmin, identity.RoleManager, identity.RoleTeamLead)).
					Get("/", userHandler.List)
				r.With(middleware.RequireRole(identity.RoleAdmin, identity.RoleManager)).
					Post("/", userHandler.Create)
				r.Get("/{id}", userHandler.GetByID)
				r.With(middleware.RequireRole(identity.RoleAdmin, identity.RoleManager)).
					Put("/{id}", userHandler.Update)
				r.With(middleware.RequireAdmin()).
					Delete("/{id}", userHandler.Delete)
			})

			r.Route("/branches", func(r chi.Router) {
				r.Get("/", branchHandler.List)
				r.With(middleware.RequireAdmin()).Post("/", branchHandler.Create)
				r.Get("/{id}", branchHandler.GetByID)
				r.With(middleware.RequireAdmin()).Put("/{id}", branchHandler.Update)
				r.With(middleware.RequireAdmin()).Delete("/{id}", branchHandler.Delete)

				r.Get("/{id}/users", branchHandler.ListUsers)
				r.Get("/{id}/teams", teamHandler.ListByBranch)
				r.Post("/{id}/teams", teamHandler.Create)
				r.Delete("/{id}/teams/{teamId}", teamHandler.Delete)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Put("/read-all", notificationHandler.MarkAllRead)
				r.Put("/{id}/read", notificationHandler.MarkRead)
				r.Delete("/{id}", notificationHandler.Delete)
			})

			r.Route("/activity-logs", func(r chi.Router) {
				r.With(middleware.RequireRole(identity.RoleAdmin, identity.RoleManager)).
					Get("/", activityHandler.List)
				r.With(middleware.RequireAdmin()).
					Get("/user/{id}", activityHandler.ListByUser)
			})
		})
	})

	return r
}
