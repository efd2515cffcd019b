package service

import (
	"context"
	"encoding/json"
	"fmt"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/offline"
	"eventstaff-backend/internal/repository"
)

// DrainResult counts what one outbox drain did.
type DrainResult struct {
	Replayed  int
	Failed    int
	Blocked   int
	Remaining int
	Stopped   bool // backend went away mid-drain
}

// Replayer pushes queued intents to the backend, oldest first.
type Replayer struct {
	store       *offline.Store
	eventRepo   repository.EventRepository
	appRepo     repository.ApplicationRepository
	apps        ApplicationService
	maxAttempts int
	metrics     *metrics.Manager
}

func NewReplayer(
	store *offline.Store,
	eventRepo repository.EventRepository,
	appRepo repository.ApplicationRepository,
	apps ApplicationService,
	maxAttempts int,
	m *metrics.Manager,
) *Replayer {
	return &Replayer{
		store:       store,
		eventRepo:   eventRepo,
		appRepo:     appRepo,
		apps:        apps,
		maxAttempts: maxAttempts,
		metrics:     m,
	}
}

// Drain replays every pending intent. An unavailable backend stops the drain
// without counting an attempt. Later intents of an entity whose earlier intent
// failed or is exhausted are held back so they never overtake it.
func (r *Replayer) Drain(ctx context.Context) (DrainResult, error) {
	var res DrainResult
	if r == nil || r.store == nil {
		return res, nil
	}

	// exhausted intents are read too so they keep blocking their entity
	entries, err := r.store.Pending(ctx, 0)
	if err != nil {
		return res, fmt.Errorf("failed to read outbox: %w", err)
	}
	if len(entries) > 0 {
		logger.Info("Draining outbox", "pending", len(entries))
	}

	blocked := make(map[string]bool)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := string(entry.Kind) + "/" + entry.EntityID
		if blocked[key] {
			res.Blocked++
			continue
		}
		if r.maxAttempts > 0 && entry.Attempts >= r.maxAttempts {
			blocked[key] = true
			res.Blocked++
			continue
		}

		err := r.replay(ctx, entry)
		switch {
		case err == nil:
			if err := r.store.Complete(ctx, entry); err != nil {
				return res, fmt.Errorf("failed to complete intent %s: %w", entry.ID, err)
			}
			res.Replayed++
			r.metrics.OutboxReplayed(string(entry.Op), "ok")
		case domain.IsUnavailable(err):
			logger.Warn("Backend still unavailable, outbox drain stopped", "intent_id", entry.ID, "error", err)
			r.metrics.OutboxReplayed(string(entry.Op), "unavailable")
			res.Stopped = true
		default:
			logger.Error("Outbox intent failed", "intent_id", entry.ID, "op", entry.Op,
				"entity_id", entry.EntityID, "attempt", entry.Attempts+1, "error", err)
			if err := r.store.RecordFailure(ctx, entry.ID, err); err != nil {
				return res, fmt.Errorf("failed to record intent failure %s: %w", entry.ID, err)
			}
			blocked[key] = true
			res.Failed++
			r.metrics.OutboxReplayed(string(entry.Op), "failed")
		}
		if res.Stopped {
			break
		}
	}

	n, err := r.store.PendingCount(ctx)
	if err != nil {
		return res, err
	}
	res.Remaining = n
	r.metrics.SetOutboxPending(n)
	return res, nil
}

func (r *Replayer) replay(ctx context.Context, entry domain.OutboxEntry) error {
	switch entry.Op {
	case domain.OutboxOpUpsertEvent:
		var event domain.Event
		if err := json.Unmarshal(entry.Payload, &event); err != nil {
			return fmt.Errorf("invalid event payload: %w", err)
		}
		return r.eventRepo.Upsert(ctx, &event)
	case domain.OutboxOpCreateApplication:
		var app domain.Application
		if err := json.Unmarshal(entry.Payload, &app); err != nil {
			return fmt.Errorf("invalid application payload: %w", err)
		}
		return r.appRepo.Create(ctx, &app)
	case domain.OutboxOpSetApplicationStatus:
		var intent domain.StatusIntent
		if err := json.Unmarshal(entry.Payload, &intent); err != nil {
			return fmt.Errorf("invalid status payload: %w", err)
		}
		return r.apps.ReplayStatus(ctx, intent)
	}
	return fmt.Errorf("unknown outbox op %q", entry.Op)
}
