package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/session"
	"eventstaff-backend/internal/utils"

	"github.com/google/uuid"
)

type eventService struct {
	eventRepo repository.EventRepository
	fallback  *Fallback
}

func NewEventService(eventRepo repository.EventRepository, fallback *Fallback) EventService {
	return &eventService{eventRepo: eventRepo, fallback: fallback}
}

func (s *eventService) CreateEvent(ctx context.Context, actor session.Session, e *domain.Event) (*domain.Event, error) {
	logger.EnterMethod("eventService.CreateEvent", "actor", actor.UserID, "title", e.Title)
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateEvent(e); err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = domain.EventStatusOpen
	}
	if !e.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	for i := range e.Functions {
		if e.Functions[i].ID == "" {
			e.Functions[i].ID = uuid.New().String()
		}
		e.Functions[i].EventID = e.ID
		e.Functions[i].Filled = 0
	}

	if err := s.save(ctx, e); err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err, "eventID", e.ID)
		return nil, err
	}
	logger.ExitMethod("eventService.CreateEvent", "eventID", e.ID)
	return e, nil
}

// UpdateEvent replaces the editable fields. Functions are matched by id;
// unknown ids are created and functions missing from the update are kept.
// The status is only changed through SetEventStatus.
func (s *eventService) UpdateEvent(ctx context.Context, actor session.Session, e *domain.Event) (*domain.Event, error) {
	logger.EnterMethod("eventService.UpdateEvent", "actor", actor.UserID, "eventID", e.ID)
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, e.ID)
	if err != nil {
		logger.ExitMethodWithError("eventService.UpdateEvent", err, "eventID", e.ID)
		return nil, err
	}

	merged := *current
	merged.Title = e.Title
	merged.Date = e.Date
	merged.Time = e.Time
	merged.Address = e.Address
	merged.ImageURL = e.ImageURL
	merged.Type = e.Type
	merged.Description = e.Description
	merged.ValuePartyHelper = e.ValuePartyHelper
	merged.ValueGeneralHelper = e.ValueGeneralHelper

	functions := make([]domain.Function, 0, len(e.Functions))
	seen := make(map[string]bool, len(e.Functions))
	for _, f := range e.Functions {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		f.EventID = current.ID
		f.Filled = 0
		if existing, ok := current.Function(f.ID); ok {
			if f.Vacancies < existing.Filled {
				return nil, fmt.Errorf("%w: %s has %d approved", domain.ErrCannotReduceVacancies, existing.Name, existing.Filled)
			}
			f.Filled = existing.Filled
		}
		seen[f.ID] = true
		functions = append(functions, f)
	}
	for _, f := range current.Functions {
		if !seen[f.ID] {
			functions = append(functions, f)
		}
	}
	merged.Functions = functions

	if err := s.save(ctx, &merged); err != nil {
		logger.ExitMethodWithError("eventService.UpdateEvent", err, "eventID", e.ID)
		return nil, err
	}
	logger.ExitMethod("eventService.UpdateEvent", "eventID", e.ID)
	return &merged, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.load(ctx, id)
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	events, err := s.eventRepo.List(ctx, domain.EventFilter{})
	if err != nil {
		if !domain.IsUnavailable(err) || !s.fallback.enabled() {
			return nil, err
		}
		logger.Warn("Backend unavailable, listing cached events", "error", err)
		events = s.fallback.cachedEvents(ctx)
	} else {
		for i := range events {
			s.fallback.remember(ctx, domain.EntityKindEvent, events[i].ID, events[i])
		}
		events = s.fallback.overlayEvents(ctx, events)
	}

	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if filter.Status == "" || e.Status == filter.Status {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *eventService) SetEventStatus(ctx context.Context, actor session.Session, id string, status domain.EventStatus) (*domain.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.moveTo(ctx, e, status)
}

// AdvanceEventStatus moves to the next status of the toggle cycle, subject to
// the same transition rules as SetEventStatus.
func (s *eventService) AdvanceEventStatus(ctx context.Context, actor session.Session, id string) (*domain.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.moveTo(ctx, e, e.Status.Next())
}

func (s *eventService) moveTo(ctx context.Context, e *domain.Event, status domain.EventStatus) (*domain.Event, error) {
	if e.Status == status {
		return e, nil
	}
	if !e.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: event %s cannot go from %s to %s", domain.ErrInvalidTransition, e.ID, e.Status, status)
	}
	from := e.Status
	e.Status = status
	if err := s.save(ctx, e); err != nil {
		return nil, err
	}
	logger.Info("Event status changed", "event_id", e.ID, "from", from, "to", status)
	return e, nil
}

// load reads an event, preferring a locally queued copy.
func (s *eventService) load(ctx context.Context, id string) (*domain.Event, error) {
	if s.fallback.pending(ctx, domain.EntityKindEvent, id) {
		if e, ok := s.fallback.cachedEvent(ctx, id); ok {
			return e, nil
		}
	}
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if domain.IsUnavailable(err) {
			if cached, ok := s.fallback.cachedEvent(ctx, id); ok {
				return cached, nil
			}
		}
		return nil, err
	}
	s.fallback.remember(ctx, domain.EntityKindEvent, e.ID, e)
	return e, nil
}

// save writes through to the backend. Events with queued intents, or any event
// while the backend is down, go to the outbox.
func (s *eventService) save(ctx context.Context, e *domain.Event) error {
	if s.fallback.pending(ctx, domain.EntityKindEvent, e.ID) {
		return s.fallback.keep(ctx, domain.EntityKindEvent, e.ID, e, domain.OutboxOpUpsertEvent, e, domain.ErrSyncPending)
	}
	err := s.eventRepo.Upsert(ctx, e)
	if err != nil {
		if domain.IsUnavailable(err) {
			return s.fallback.keep(ctx, domain.EntityKindEvent, e.ID, e, domain.OutboxOpUpsertEvent, e, err)
		}
		return err
	}
	s.fallback.remember(ctx, domain.EntityKindEvent, e.ID, e)
	return nil
}

func validateEvent(e *domain.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if _, err := utils.ParseDate(e.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	if e.Time != "" {
		if _, _, err := utils.ParseClock(e.Time); err != nil {
			return fmt.Errorf("%w: time must be HH:MM", domain.ErrValidation)
		}
	}
	for _, f := range e.Functions {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: function name is required", domain.ErrValidation)
		}
		if f.Vacancies < 0 {
			return fmt.Errorf("%w: vacancies cannot be negative", domain.ErrValidation)
		}
		if f.Pay < 0 {
			return fmt.Errorf("%w: pay cannot be negative", domain.ErrValidation)
		}
	}
	return nil
}
