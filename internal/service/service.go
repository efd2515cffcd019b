package service

import (
	"context"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/session"
)

type AuthService interface {
	Register(ctx context.Context, name, email, phone, password string) (*domain.User, string, error) // user, access token
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error)
	ListStaff(ctx context.Context, actor session.Session) ([]domain.User, error)
	DeleteUser(ctx context.Context, actor session.Session, userID string) error
}

type EventService interface {
	CreateEvent(ctx context.Context, actor session.Session, event *domain.Event) (*domain.Event, error)
	UpdateEvent(ctx context.Context, actor session.Session, event *domain.Event) (*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	SetEventStatus(ctx context.Context, actor session.Session, id string, status domain.EventStatus) (*domain.Event, error)
	AdvanceEventStatus(ctx context.Context, actor session.Session, id string) (*domain.Event, error)
}

// ApplicationService is the application state machine.
type ApplicationService interface {
	Submit(ctx context.Context, actor session.Session, eventID, functionID string) (*domain.Application, error)
	SetStatus(ctx context.Context, actor session.Session, applicationID string, status domain.ApplicationStatus) (*domain.Application, error)
	Cancel(ctx context.Context, actor session.Session, applicationID, reason string) (*domain.Application, error)
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
	ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error)
	ListMyJobs(ctx context.Context, userID string) (*domain.MyJobs, error)

	// ReplayStatus applies a queued status intent against the backend. It
	// never falls back to the local cache.
	ReplayStatus(ctx context.Context, intent domain.StatusIntent) error
}

// VacancyLedger keeps filled within [0, vacancies] for every function.
type VacancyLedger interface {
	Increment(ctx context.Context, functionID string) (*domain.Function, error)
	Decrement(ctx context.Context, functionID string) (f *domain.Function, moved bool, err error)
}

type EvaluationService interface {
	Evaluate(ctx context.Context, actor session.Session, eventID, userID string, scores domain.Scores, presence bool, notes string) (*domain.Evaluation, error)
	UpdatePerformance(ctx context.Context, actor session.Session, userID string, scores domain.Scores, notes string) (*domain.Evaluation, error)
	ListEvaluations(ctx context.Context, actor session.Session, userID string) ([]domain.Evaluation, error)
	RecomputeRating(ctx context.Context, userID string) (*domain.User, error)
}

// NotificationEmitter records workflow signals. Emit never fails the caller.
type NotificationEmitter interface {
	Emit(ctx context.Context, notice Notice)
}

type NotificationService interface {
	ListNotifications(ctx context.Context, actor session.Session, since time.Time) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, actor session.Session, id string) error
}

type ReportService interface {
	Summary(ctx context.Context, actor session.Session) (*domain.ReportSummary, error)
	Ranking(ctx context.Context, actor session.Session, limit int) ([]domain.RankingEntry, error)
}

type SyncService interface {
	Status(ctx context.Context) (domain.SyncStatus, error)
}

// EmailService delivers plain text mail.
type EmailService interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}

// PushService publishes a notification to a push topic.
type PushService interface {
	Publish(ctx context.Context, topic, title, body string, data map[string]string) error
}

// Pinger reports whether the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func requireAdmin(actor session.Session) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
