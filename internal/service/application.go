package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/session"

	"github.com/google/uuid"
)

type applicationService struct {
	appRepo  repository.ApplicationRepository
	userRepo repository.UserRepository
	events   EventService
	ledger   VacancyLedger
	emitter  NotificationEmitter
	fallback *Fallback
	metrics  *metrics.Manager
}

func NewApplicationService(
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	events EventService,
	ledger VacancyLedger,
	emitter NotificationEmitter,
	fallback *Fallback,
	m *metrics.Manager,
) ApplicationService {
	return &applicationService{
		appRepo:  appRepo,
		userRepo: userRepo,
		events:   events,
		ledger:   ledger,
		emitter:  emitter,
		fallback: fallback,
		metrics:  m,
	}
}

func (s *applicationService) Submit(ctx context.Context, actor session.Session, eventID, functionID string) (*domain.Application, error) {
	logger.EnterMethod("applicationService.Submit", "userID", actor.UserID, "eventID", eventID, "functionID", functionID)
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		logger.ExitMethodWithError("applicationService.Submit", err, "eventID", eventID)
		return nil, err
	}
	fn, ok := event.Function(functionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not part of event %s", domain.ErrFunctionNotFound, functionID, eventID)
	}
	if !event.Status.AcceptsApplications() {
		return nil, fmt.Errorf("%w: event is %s", domain.ErrEventClosed, event.Status)
	}

	existing, err := s.ListApplications(ctx, domain.ApplicationFilter{EventID: eventID, UserID: actor.UserID})
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.Status.Active() {
			return nil, domain.ErrDuplicateActive
		}
	}

	now := time.Now().UTC()
	app := &domain.Application{
		ID:         uuid.New().String(),
		EventID:    eventID,
		UserID:     actor.UserID,
		FunctionID: functionID,
		Status:     domain.ApplicationStatusPending,
		AppliedAt:  now,
		UpdatedOn:  now,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		if !domain.IsUnavailable(err) {
			logger.ExitMethodWithError("applicationService.Submit", err, "applicationID", app.ID)
			return nil, err
		}
		if err := s.fallback.keep(ctx, domain.EntityKindApplication, app.ID, app, domain.OutboxOpCreateApplication, app, err); err != nil {
			logger.ExitMethodWithError("applicationService.Submit", err, "applicationID", app.ID)
			return nil, err
		}
	} else {
		s.fallback.remember(ctx, domain.EntityKindApplication, app.ID, app)
	}
	s.metrics.Transition("", string(app.Status))

	s.emitter.Emit(ctx, Notice{
		Kind:       domain.NotificationKindNewApplication,
		Type:       domain.NotificationTypeInfo,
		TargetRole: domain.UserRoleAdmin,
		Data: map[string]any{
			"UserName":     s.displayName(ctx, actor),
			"EventTitle":   event.Title,
			"FunctionName": fn.Name,
		},
	})

	logger.ExitMethod("applicationService.Submit", "applicationID", app.ID)
	return app, nil
}

func (s *applicationService) SetStatus(ctx context.Context, actor session.Session, applicationID string, status domain.ApplicationStatus) (*domain.Application, error) {
	logger.EnterMethod("applicationService.SetStatus", "actor", actor.UserID, "applicationID", applicationID, "status", status)
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if status == domain.ApplicationStatusCancelled {
		return nil, fmt.Errorf("%w: cancellation requires the applicant and a reason", domain.ErrInvalidTransition)
	}

	app, err := s.transition(ctx, actor.UserID, applicationID, status, "", false)
	if err != nil {
		logger.ExitMethodWithError("applicationService.SetStatus", err, "applicationID", applicationID)
		return nil, err
	}
	logger.ExitMethod("applicationService.SetStatus", "applicationID", applicationID, "status", app.Status)
	return app, nil
}

func (s *applicationService) Cancel(ctx context.Context, actor session.Session, applicationID, reason string) (*domain.Application, error) {
	logger.EnterMethod("applicationService.Cancel", "actor", actor.UserID, "applicationID", applicationID)
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if app.Status == domain.ApplicationStatusCancelled {
		return app, nil
	}

	app, err = s.transition(ctx, actor.UserID, applicationID, domain.ApplicationStatusCancelled, reason, false)
	if err != nil {
		logger.ExitMethodWithError("applicationService.Cancel", err, "applicationID", applicationID)
		return nil, err
	}
	logger.ExitMethod("applicationService.Cancel", "applicationID", applicationID)
	return app, nil
}

func (s *applicationService) ReplayStatus(ctx context.Context, intent domain.StatusIntent) error {
	_, err := s.transition(ctx, intent.ActorID, intent.ApplicationID, intent.Status, intent.Reason, true)
	return err
}

// transition applies old -> next, moving the ledger when APPROVED is entered
// or left. Replays run strictly against the backend and emit nothing.
func (s *applicationService) transition(ctx context.Context, actorID, applicationID string, next domain.ApplicationStatus, reason string, replay bool) (*domain.Application, error) {
	var app *domain.Application
	var err error
	if replay {
		app, err = s.appRepo.GetByID(ctx, applicationID)
	} else {
		app, err = s.load(ctx, applicationID)
	}
	if err != nil {
		return nil, err
	}

	old := app.Status
	if old == next {
		return app, nil
	}
	cancelling := next == domain.ApplicationStatusCancelled
	if cancelling {
		if old == domain.ApplicationStatusCancelled {
			return app, nil
		}
		if replay && app.UserID != actorID {
			return nil, domain.ErrForbidden
		}
	} else if !old.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, old, next)
	}

	delta := domain.LedgerDelta(old, next)
	queued := !replay && s.fallback.pending(ctx, domain.EntityKindApplication, app.ID)
	if delta != 0 && queued {
		return nil, domain.ErrSyncPending
	}

	moved, err := s.moveLedger(ctx, app.FunctionID, delta)
	if err != nil {
		return nil, err
	}

	app.Status = next
	if cancelling {
		app.CancellationReason = reason
	}
	intent := domain.StatusIntent{ApplicationID: app.ID, ActorID: actorID, Status: next, Reason: reason}

	if queued {
		if err := s.fallback.keep(ctx, domain.EntityKindApplication, app.ID, app, domain.OutboxOpSetApplicationStatus, intent, domain.ErrSyncPending); err != nil {
			app.Status = old
			return nil, err
		}
	} else if err := s.appRepo.UpdateStatus(ctx, app, old); err != nil {
		if moved {
			s.compensate(ctx, app.FunctionID, delta)
		}
		if delta != 0 || replay || !domain.IsUnavailable(err) {
			app.Status = old
			return nil, err
		}
		// ledger-neutral change while the backend is down
		if err := s.fallback.keep(ctx, domain.EntityKindApplication, app.ID, app, domain.OutboxOpSetApplicationStatus, intent, err); err != nil {
			app.Status = old
			return nil, err
		}
	} else {
		s.fallback.remember(ctx, domain.EntityKindApplication, app.ID, app)
	}

	s.metrics.Transition(string(old), string(next))
	logger.Info("Application status changed", "application_id", app.ID, "from", old, "to", next, "ledger_delta", delta, "replay", replay)

	if !replay {
		s.notifyTransition(ctx, app, reason)
	}
	return app, nil
}

// moveLedger applies delta and reports whether filled actually changed.
func (s *applicationService) moveLedger(ctx context.Context, functionID string, delta int) (bool, error) {
	switch {
	case delta > 0:
		if _, err := s.ledger.Increment(ctx, functionID); err != nil {
			return false, err
		}
		return true, nil
	case delta < 0:
		_, moved, err := s.ledger.Decrement(ctx, functionID)
		return moved, err
	}
	return false, nil
}

// compensate reverts a ledger move whose status write failed.
func (s *applicationService) compensate(ctx context.Context, functionID string, delta int) {
	if _, err := s.moveLedger(ctx, functionID, -delta); err != nil {
		logger.Error("Failed to compensate vacancy ledger", "function_id", functionID, "delta", -delta, "error", err)
	}
}

func (s *applicationService) notifyTransition(ctx context.Context, app *domain.Application, reason string) {
	data := map[string]any{"Status": app.Status}
	if event, err := s.events.GetEvent(ctx, app.EventID); err == nil {
		data["EventTitle"] = event.Title
		if fn, ok := event.Function(app.FunctionID); ok {
			data["FunctionName"] = fn.Name
		}
	}

	if app.Status == domain.ApplicationStatusCancelled {
		data["Reason"] = reason
		data["UserName"] = s.displayName(ctx, session.Session{UserID: app.UserID})
		s.emitter.Emit(ctx, Notice{
			Kind:       domain.NotificationKindApplicationCancelled,
			Type:       domain.NotificationTypeAlert,
			TargetRole: domain.UserRoleAdmin,
			Data:       data,
		})
		return
	}

	noteType := domain.NotificationTypeInfo
	switch app.Status {
	case domain.ApplicationStatusApproved:
		noteType = domain.NotificationTypeSuccess
	case domain.ApplicationStatusRejected:
		noteType = domain.NotificationTypeAlert
	}
	s.emitter.Emit(ctx, Notice{
		Kind:         domain.NotificationKindStatusChanged,
		Type:         noteType,
		TargetRole:   domain.UserRoleStaff,
		TargetUserID: app.UserID,
		Data:         data,
	})
}

func (s *applicationService) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	return s.load(ctx, id)
}

func (s *applicationService) ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	apps, err := s.appRepo.List(ctx, filter)
	if err != nil {
		if !domain.IsUnavailable(err) || !s.fallback.enabled() {
			return nil, err
		}
		logger.Warn("Backend unavailable, listing cached applications", "error", err)
		apps = s.fallback.cachedApplications(ctx)
	} else {
		for i := range apps {
			s.fallback.remember(ctx, domain.EntityKindApplication, apps[i].ID, apps[i])
		}
		apps = s.fallback.overlayApplications(ctx, apps)
	}

	out := make([]domain.Application, 0, len(apps))
	for i := range apps {
		if filter.Matches(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out, nil
}

// ListMyJobs sorts the user's applications into the three buckets of the
// staff jobs screen.
func (s *applicationService) ListMyJobs(ctx context.Context, userID string) (*domain.MyJobs, error) {
	apps, err := s.ListApplications(ctx, domain.ApplicationFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]domain.EventStatus)
	jobs := &domain.MyJobs{
		Pending:  []domain.Application{},
		Upcoming: []domain.Application{},
		History:  []domain.Application{},
	}
	for _, a := range apps {
		eventStatus, ok := statuses[a.EventID]
		if !ok {
			if e, err := s.events.GetEvent(ctx, a.EventID); err == nil {
				eventStatus = e.Status
			}
			statuses[a.EventID] = eventStatus
		}

		switch {
		case eventStatus == domain.EventStatusCancelled,
			a.Status == domain.ApplicationStatusRejected,
			a.Status == domain.ApplicationStatusCancelled:
			jobs.History = append(jobs.History, a)
		case a.Status == domain.ApplicationStatusApproved && eventStatus == domain.EventStatusDone:
			jobs.History = append(jobs.History, a)
		case a.Status == domain.ApplicationStatusApproved:
			jobs.Upcoming = append(jobs.Upcoming, a)
		default:
			jobs.Pending = append(jobs.Pending, a)
		}
	}
	return jobs, nil
}

// load reads an application, preferring a locally queued copy.
func (s *applicationService) load(ctx context.Context, id string) (*domain.Application, error) {
	if s.fallback.pending(ctx, domain.EntityKindApplication, id) {
		if a, ok := s.fallback.cachedApplication(ctx, id); ok {
			return a, nil
		}
	}
	a, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if domain.IsUnavailable(err) {
			if cached, ok := s.fallback.cachedApplication(ctx, id); ok {
				return cached, nil
			}
		}
		return nil, err
	}
	return a, nil
}

func (s *applicationService) displayName(ctx context.Context, actor session.Session) string {
	if s.userRepo != nil {
		if u, err := s.userRepo.GetByID(ctx, actor.UserID); err == nil && u.Name != "" {
			return u.Name
		}
	}
	if actor.Email != "" {
		return actor.Email
	}
	return actor.UserID
}
