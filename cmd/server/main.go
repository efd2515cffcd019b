package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "eventstaff-backend/internal/api/http"
	"eventstaff-backend/internal/config"
	"eventstaff-backend/internal/i18n"
	"eventstaff-backend/internal/jobs"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/offline"
	"eventstaff-backend/internal/scheduler"
	"eventstaff-backend/internal/security"
	"eventstaff-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting EventStaff Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "backend", cfg.Backend.Type)

	ctx := context.Background()

	// Initialize Backend
	repos, closeBackend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize backend: %v", err)
	}
	defer closeBackend()

	// Initialize Offline Cache
	var store *offline.Store
	if cfg.Offline.Enabled {
		store, err = offline.Open(ctx, cfg.Offline.Path)
		if err != nil {
			logger.Error("Failed to open offline cache", "error", err, "path", cfg.Offline.Path)
			log.Fatalf("Failed to open offline cache: %v", err)
		}
		defer store.Close()
		logger.Info("Offline cache enabled", "path", cfg.Offline.Path)
	}

	m := metrics.NewManager()
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Delivery Channels
	var emailSvc service.EmailService
	if cfg.Notifications.SendGrid.APIKey != "" {
		emailSvc = service.NewEmailService(cfg.Notifications.SendGrid.APIKey, cfg.Notifications.SendGrid.FromEmail, cfg.Notifications.SendGrid.FromName)
		logger.Info("Email delivery enabled", "from", cfg.Notifications.SendGrid.FromEmail)
	}
	var pushSvc service.PushService
	if cfg.Notifications.Firebase.ProjectID != "" {
		pushSvc, err = service.NewFirebasePushService(ctx, cfg.Notifications.Firebase.ProjectID, cfg.Notifications.Firebase.CredentialsFile)
		if err != nil {
			logger.Warn("Push delivery disabled", "error", err)
		} else {
			logger.Info("Push delivery enabled", "project_id", cfg.Notifications.Firebase.ProjectID)
		}
	}

	// Initialize Services
	fallback := service.NewFallback(store, m)
	emitter := service.NewNotificationEmitter(
		repos.NotificationRepository,
		repos.UserRepository,
		i18n.NewTranslator(cfg.Notifications.Locale),
		cfg.Notifications.Locale,
		emailSvc,
		pushSvc,
		m,
	)
	eventSvc := service.NewEventService(repos.EventRepository, fallback)
	ledger := service.NewVacancyLedger(repos.FunctionRepository, m)
	appSvc := service.NewApplicationService(
		repos.ApplicationRepository,
		repos.UserRepository,
		eventSvc,
		ledger,
		emitter,
		fallback,
		m,
	)
	evalSvc := service.NewEvaluationService(
		repos.EvaluationRepository,
		repos.UserRepository,
		repos.ApplicationRepository,
		eventSvc,
		emitter,
	)

	// Initialize Scheduler
	jobServices := &jobs.Services{
		Evaluations: evalSvc,
		Users:       repos.UserRepository,
	}
	if store != nil {
		jobServices.Outbox = service.NewReplayer(store, repos.EventRepository, repos.ApplicationRepository, appSvc, cfg.Offline.MaxAttempts, m)
	}
	sched := scheduler.NewScheduler(jobs.NewJobRunner(jobServices, cfg))
	sched.Start()
	defer sched.Stop()

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Services: httpapi.Services{
			Auth:          service.NewAuthService(repos.UserRepository, tokenManager),
			Users:         service.NewUserService(repos.UserRepository),
			Events:        eventSvc,
			Applications:  appSvc,
			Evaluations:   evalSvc,
			Notifications: service.NewNotificationService(repos.NotificationRepository),
			Reports:       service.NewReportService(repos.EventRepository, repos.UserRepository),
			Sync:          service.NewSyncService(repos, fallback),
		},
		Tokens:  tokenManager,
		Pending: fallback,
		Backend: repos,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
