package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calleval/calleval/internal/agents"
	"github.com/calleval/calleval/internal/app"
	"github.com/calleval/calleval/internal/auth"
	"github.com/calleval/calleval/internal/calls"
	"github.com/calleval/calleval/internal/dashboard"
	"github.com/calleval/calleval/internal/gateway"
	"github.com/calleval/calleval/internal/guard"
	"github.com/calleval/calleval/internal/observability"
	"github.com/calleval/calleval/internal/platform/cache"
	"github.com/calleval/calleval/internal/rbac"
	"github.com/calleval/calleval/internal/reports"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/settings"
	"github.com/calleval/calleval/internal/shared"
	"github.com/calleval/calleval/internal/upload"
	"github.com/calleval/calleval/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// A hole in the permission table is a deployment mistake, not a runtime
	// condition; refuse to start.
	if err := rbac.VerifyTable(); err != nil {
		logger.Error("permission table check", slog.Any("error", err))
		os.Exit(1)
	}

	// Sessions live in Redis; without it no request can be served.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "calleval_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	store := session.NewStore(logger)
	gw := gateway.New(cfg.APIBaseURL, cfg.APITimeout, store, logger)
	routeGuard := guard.New(store, logger)

	settingsService := settings.NewService(gw, store, logger)
	authService := auth.NewService(gw, store, logger)
	authHandler := auth.NewHandler(logger, authService, settingsService, store, templates, sessionManager, csrfManager)

	dashboardHandler := dashboard.NewHandler(logger, gw, store, templates, csrfManager)
	callsHandler := calls.NewHandler(logger, gw, store, templates, csrfManager)
	uploadHandler := upload.NewHandler(logger, gw, store, templates, csrfManager)
	agentsHandler := agents.NewHandler(logger, gw, store, templates, csrfManager)
	reportsHandler := reports.NewHandler(logger, gw, store, templates, csrfManager)
	settingsHandler := settings.NewHandler(logger, settingsService, gw, store, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		Guard:          routeGuard,

		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		CallsHandler:     callsHandler,
		UploadHandler:    uploadHandler,
		AgentsHandler:    agentsHandler,
		ReportsHandler:   reportsHandler,
		SettingsHandler:  settingsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
