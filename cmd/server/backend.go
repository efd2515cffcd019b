package main

import (
	"database/sql"
	"fmt"

	"eventstaff-backend/internal/config"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/repository/memory"
	"eventstaff-backend/internal/repository/postgres"
	"eventstaff-backend/internal/service"
)

// backend is the source of truth selected by configuration.
type backend struct {
	service.Pinger
	UserRepository         repository.UserRepository
	EventRepository        repository.EventRepository
	FunctionRepository     repository.FunctionRepository
	ApplicationRepository  repository.ApplicationRepository
	EvaluationRepository   repository.EvaluationRepository
	NotificationRepository repository.NotificationRepository
}

func openBackend(cfg *config.Config) (*backend, func(), error) {
	if cfg.Backend.Type == config.BackendMemory {
		logger.Warn("Using in-memory backend, data is lost on restart")
		s := memory.NewStore()
		return &backend{
			Pinger:                 s,
			UserRepository:         s.UserRepository,
			EventRepository:        s.EventRepository,
			FunctionRepository:     s.FunctionRepository,
			ApplicationRepository:  s.ApplicationRepository,
			EvaluationRepository:   s.EvaluationRepository,
			NotificationRepository: s.NotificationRepository,
		}, func() {}, nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Writes fall back to the offline cache, so a down database is not fatal.
	if err := db.Ping(); err != nil {
		logger.Warn("Database not reachable at startup", "error", err)
	} else {
		logger.Info("Database connection established")
		if cfg.Database.RunMigrations {
			if err := postgres.RunMigrations(db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
	}

	s := postgres.NewStore(db)
	return &backend{
		Pinger:                 s,
		UserRepository:         s.UserRepository,
		EventRepository:        s.EventRepository,
		FunctionRepository:     s.FunctionRepository,
		ApplicationRepository:  s.ApplicationRepository,
		EvaluationRepository:   s.EvaluationRepository,
		NotificationRepository: s.NotificationRepository,
	}, func() { db.Close() }, nil
}
