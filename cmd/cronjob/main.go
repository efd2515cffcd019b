package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"eventstaff-backend/internal/config"
	"eventstaff-backend/internal/i18n"
	"eventstaff-backend/internal/jobs"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/offline"
	"eventstaff-backend/internal/repository/postgres"
	"eventstaff-backend/internal/scheduler"
	"eventstaff-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'drain-outbox', 'recompute-ratings', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting EventStaff Cronjob Runner...", "log_level", cfg.Log.Level)

	if cfg.Backend.Type != config.BackendPostgres {
		log.Fatalf("Cronjob runner needs the postgres backend, got %q", cfg.Backend.Type)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	m := metrics.NewManager()

	var cache *offline.Store
	if cfg.Offline.Enabled {
		cache, err = offline.Open(context.Background(), cfg.Offline.Path)
		if err != nil {
			log.Fatalf("Failed to open offline cache: %v", err)
		}
		defer cache.Close()
	}

	// Initialize Services
	fallback := service.NewFallback(cache, m)
	emitter := service.NewNotificationEmitter(
		store.NotificationRepository,
		store.UserRepository,
		i18n.NewTranslator(cfg.Notifications.Locale),
		cfg.Notifications.Locale,
		nil,
		nil,
		m,
	)
	eventService := service.NewEventService(store.EventRepository, fallback)
	appService := service.NewApplicationService(
		store.ApplicationRepository,
		store.UserRepository,
		eventService,
		service.NewVacancyLedger(store.FunctionRepository, m),
		emitter,
		fallback,
		m,
	)
	evalService := service.NewEvaluationService(
		store.EvaluationRepository,
		store.UserRepository,
		store.ApplicationRepository,
		eventService,
		emitter,
	)

	jobServices := &jobs.Services{
		Evaluations: evalService,
		Users:       store.UserRepository,
	}
	if cache != nil {
		jobServices.Outbox = service.NewReplayer(cache, store.EventRepository, store.ApplicationRepository, appService, cfg.Offline.MaxAttempts, m)
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "drain-outbox":
		jobRunner.DrainOutbox()
	case "recompute-ratings":
		jobRunner.RecomputeRatings()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - drain-outbox\n")
		fmt.Printf("  - recompute-ratings\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
