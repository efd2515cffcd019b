package service

import (
	"context"
	"errors"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/offline"
)

// Fallback routes writes to the offline store when the backend is unreachable
// and merges cached copies into reads. A nil store disables it: backend
// outages then surface as domain.ErrBackendUnavailable.
type Fallback struct {
	store   *offline.Store
	metrics *metrics.Manager
}

func NewFallback(store *offline.Store, m *metrics.Manager) *Fallback {
	return &Fallback{store: store, metrics: m}
}

func (f *Fallback) enabled() bool {
	return f != nil && f.store != nil
}

// keep stores entity locally and queues the intent. It returns cause when the
// fallback is disabled or the local write itself fails.
func (f *Fallback) keep(ctx context.Context, kind domain.EntityKind, entityID string, entity any, op domain.OutboxOp, intent any, cause error) error {
	if !f.enabled() {
		return cause
	}
	if _, err := f.store.Save(ctx, kind, entityID, entity, op, intent); err != nil {
		logger.Error("Failed to keep write in local cache", "kind", kind, "entity_id", entityID, "op", op, "error", err)
		return errors.Join(cause, err)
	}
	logger.FallbackWrite(string(kind), entityID, string(op), cause)
	f.metrics.FallbackWrite(string(kind), string(op))
	f.refreshPending(ctx)
	return nil
}

// pending reports whether entity has queued intents.
func (f *Fallback) pending(ctx context.Context, kind domain.EntityKind, entityID string) bool {
	if !f.enabled() {
		return false
	}
	ids, err := f.store.PendingEntities(ctx, kind)
	if err != nil {
		logger.Warn("Failed to read outbox", "kind", kind, "error", err)
		return false
	}
	return ids[entityID]
}

func (f *Fallback) refreshPending(ctx context.Context) {
	if !f.enabled() {
		return
	}
	if n, err := f.store.PendingCount(ctx); err == nil {
		f.metrics.SetOutboxPending(n)
	}
}

// remember refreshes the cached copy of entities read from the backend.
func (f *Fallback) remember(ctx context.Context, kind domain.EntityKind, id string, entity any) {
	if !f.enabled() {
		return
	}
	if err := f.store.Put(ctx, kind, id, entity); err != nil {
		logger.Warn("Failed to refresh local cache", "kind", kind, "entity_id", id, "error", err)
	}
}

func (f *Fallback) cachedEvent(ctx context.Context, id string) (*domain.Event, bool) {
	if !f.enabled() {
		return nil, false
	}
	e, ok, err := offline.CachedOne[domain.Event](ctx, f.store, domain.EntityKindEvent, id)
	if err != nil {
		logger.Warn("Failed to read cached event", "event_id", id, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &e, true
}

func (f *Fallback) cachedApplication(ctx context.Context, id string) (*domain.Application, bool) {
	if !f.enabled() {
		return nil, false
	}
	a, ok, err := offline.CachedOne[domain.Application](ctx, f.store, domain.EntityKindApplication, id)
	if err != nil {
		logger.Warn("Failed to read cached application", "application_id", id, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &a, true
}

func (f *Fallback) cachedEvents(ctx context.Context) []domain.Event {
	if !f.enabled() {
		return nil
	}
	events, err := offline.Cached[domain.Event](ctx, f.store, domain.EntityKindEvent)
	if err != nil {
		logger.Warn("Failed to read cached events", "error", err)
	}
	return events
}

func (f *Fallback) cachedApplications(ctx context.Context) []domain.Application {
	if !f.enabled() {
		return nil
	}
	apps, err := offline.Cached[domain.Application](ctx, f.store, domain.EntityKindApplication)
	if err != nil {
		logger.Warn("Failed to read cached applications", "error", err)
	}
	return apps
}

// overlayEvents replaces backend copies with locally queued ones and appends
// events only known locally.
func (f *Fallback) overlayEvents(ctx context.Context, events []domain.Event) []domain.Event {
	if !f.enabled() {
		return events
	}
	ids, err := f.store.PendingEntities(ctx, domain.EntityKindEvent)
	if err != nil || len(ids) == 0 {
		return events
	}
	local := make(map[string]domain.Event)
	for _, e := range f.cachedEvents(ctx) {
		if ids[e.ID] {
			local[e.ID] = e
		}
	}
	for i := range events {
		if e, ok := local[events[i].ID]; ok {
			events[i] = e
			delete(local, e.ID)
		}
	}
	for _, e := range local {
		events = append(events, e)
	}
	return events
}

func (f *Fallback) overlayApplications(ctx context.Context, apps []domain.Application) []domain.Application {
	if !f.enabled() {
		return apps
	}
	ids, err := f.store.PendingEntities(ctx, domain.EntityKindApplication)
	if err != nil || len(ids) == 0 {
		return apps
	}
	local := make(map[string]domain.Application)
	for _, a := range f.cachedApplications(ctx) {
		if ids[a.ID] {
			local[a.ID] = a
		}
	}
	for i := range apps {
		if a, ok := local[apps[i].ID]; ok {
			apps[i] = a
			delete(local, a.ID)
		}
	}
	for _, a := range local {
		apps = append(apps, a)
	}
	return apps
}

// PendingCount returns the number of queued intents; zero when disabled.
func (f *Fallback) PendingCount(ctx context.Context) int {
	if !f.enabled() {
		return 0
	}
	n, err := f.store.PendingCount(ctx)
	if err != nil {
		logger.Warn("Failed to count outbox", "error", err)
		return 0
	}
	return n
}
