package service

import (
	"context"

	"eventstaff-backend/internal/domain"
)

type syncService struct {
	backend  Pinger
	fallback *Fallback
}

func NewSyncService(backend Pinger, fallback *Fallback) SyncService {
	return &syncService{backend: backend, fallback: fallback}
}

// Status reports queued intents and whether the backend answers a ping.
func (s *syncService) Status(ctx context.Context) (domain.SyncStatus, error) {
	status := domain.SyncStatus{Pending: s.fallback.PendingCount(ctx)}
	if err := s.backend.Ping(ctx); err != nil {
		status.Offline = true
	}
	return status, nil
}
