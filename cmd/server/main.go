package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/api"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/auth"
	"github.com/sheetdesk/sheetdesk/internal/branch"
	"github.com/sheetdesk/sheetdesk/internal/cell"
	"github.com/sheetdesk/sheetdesk/internal/config"
	"github.com/sheetdesk/sheetdesk/internal/database"
	"github.com/sheetdesk/sheetdesk/internal/mailer"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
	"github.com/sheetdesk/sheetdesk/internal/team"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	pool := db.Pool()
	userRepo := user.NewRepository(pool)
	branchRepo := branch.NewRepository(pool)
	teamRepo := team.NewRepository(pool)
	sheetRepo := sheet.NewRepository(pool)
	cellRepo := cell.NewRepository(pool)
	shareRepo := share.NewRepository(pool)
	notifyRepo := notify.NewRepository(pool)
	auditRepo := audit.NewRepository(pool)

	authService := auth.NewService(userRepo, cfg.JWTSecret,
		time.Duration(cfg.JWTExpiryMinutes)*time.Minute, cfg.BcryptCost)

	created, err := authService.BootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		slog.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}
	if created {
		slog.Info("bootstrapped initial admin account", "email", cfg.AdminEmail)
	}

	mail, err := mailer.New(mailer.Config{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPassword,
		From:        cfg.EmailFrom,
		FrontendURL: cfg.FrontendURL,
	})
	if err != nil {
		slog.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterDeps{
		AuthService: authService,
		UserRepo:    userRepo,
		BranchRepo:  branchRepo,
		TeamRepo:    teamRepo,
		SheetRepo:   sheetRepo,
		CellRepo:    cellRepo,
		ShareRepo:   shareRepo,
		NotifyRepo:  notifyRepo,
		AuditRepo:   auditRepo,
		Recorder:    audit.NewRecorder(auditRepo),
		Notifier:    notify.NewNotifier(notifyRepo),
		Mailer:      mail,
		DBPinger:    db,
		Version:     cfg.Version,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting sheetdesk server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
