package repository

import (
	"context"
	"time"

	"eventstaff-backend/internal/domain"
)

// Implementations wrap connection-level failures in domain.ErrBackendUnavailable
// and return the domain not found errors for missing rows.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes a user without history. Users referenced by applications
	// or evaluations yield domain.ErrUserHasHistory.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, role domain.UserRole) ([]domain.User, error)
}

type EventRepository interface {
	// Upsert writes the event row and its functions. Existing function rows keep
	// their filled counter; new ones start at zero.
	Upsert(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
}

// FunctionRepository owns the vacancy counters. Both mutations are single
// atomic statements against the source of truth.
type FunctionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Function, error)
	// IncrementFilled adds one to filled only while filled < vacancies and
	// returns domain.ErrCapacity otherwise.
	IncrementFilled(ctx context.Context, id string) (*domain.Function, error)
	// DecrementFilled subtracts one from filled, floored at zero. moved is
	// false when filled was already zero.
	DecrementFilled(ctx context.Context, id string) (f *domain.Function, moved bool, err error)
}

type ApplicationRepository interface {
	// Create inserts the application. Re-inserting an existing id is a no-op.
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	// UpdateStatus writes app.Status only while the stored status is still
	// from, and returns domain.ErrStaleStatus otherwise.
	UpdateStatus(ctx context.Context, app *domain.Application, from domain.ApplicationStatus) error
	List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error)
}

type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *domain.Evaluation) error
	ListByUser(ctx context.Context, userID string) ([]domain.Evaluation, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Evaluation, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	// ListFor returns visible notifications newer than since (all when zero),
	// newest first, at most limit.
	ListFor(ctx context.Context, userID string, role domain.UserRole, since time.Time, limit int32) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userID string, role domain.UserRole) error
}
