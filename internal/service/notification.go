package service

import (
	"context"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/repository"
	"eventstaff-backend/internal/session"

	"github.com/google/uuid"
)

const notificationListLimit = 50

// Notice is a workflow signal before rendering. Data fills the message
// template; an application status under "Status" is translated.
type Notice struct {
	Kind         domain.NotificationKind
	Type         domain.NotificationType
	TargetRole   domain.UserRole
	TargetUserID string
	Data         map[string]any
}

// Translator renders catalog messages.
type Translator interface {
	T(locale, key string, data map[string]any) string
}

var messageKeys = map[domain.NotificationKind]string{
	domain.NotificationKindNewApplication:       "new_application",
	domain.NotificationKindStatusChanged:        "status_changed",
	domain.NotificationKindApplicationCancelled: "application_cancelled",
	domain.NotificationKindEvaluated:            "evaluated",
}

type notificationEmitter struct {
	noteRepo   repository.NotificationRepository
	userRepo   repository.UserRepository
	translator Translator
	locale     string
	emailSvc   EmailService
	pushSvc    PushService
	metrics    *metrics.Manager
}

// NewNotificationEmitter builds the emitter. emailSvc and pushSvc are optional
// delivery channels and may be nil.
func NewNotificationEmitter(
	noteRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	translator Translator,
	locale string,
	emailSvc EmailService,
	pushSvc PushService,
	m *metrics.Manager,
) NotificationEmitter {
	return &notificationEmitter{
		noteRepo:   noteRepo,
		userRepo:   userRepo,
		translator: translator,
		locale:     locale,
		emailSvc:   emailSvc,
		pushSvc:    pushSvc,
		metrics:    m,
	}
}

func (e *notificationEmitter) Emit(ctx context.Context, notice Notice) {
	n := e.render(notice)

	if err := e.noteRepo.Create(ctx, n); err != nil {
		logger.Warn("Failed to persist notification", "kind", n.Kind, "target_role", n.TargetRole, "target_user_id", n.TargetUserID, "error", err)
		e.metrics.NotificationFailed("persist")
		return
	}
	e.metrics.NotificationEmitted(string(n.Kind))

	e.deliverPush(ctx, n)
	e.deliverEmail(ctx, n)
}

func (e *notificationEmitter) render(notice Notice) *domain.Notification {
	data := make(map[string]any, len(notice.Data))
	for k, v := range notice.Data {
		data[k] = v
	}
	if status, ok := data["Status"].(domain.ApplicationStatus); ok {
		data["Status"] = e.translator.T(e.locale, "status_"+string(status), nil)
	}

	key := messageKeys[notice.Kind]
	return &domain.Notification{
		ID:           uuid.New().String(),
		Kind:         notice.Kind,
		Type:         notice.Type,
		Title:        e.translator.T(e.locale, key+"_title", data),
		Message:      e.translator.T(e.locale, key+"_message", data),
		CreatedOn:    time.Now().UTC(),
		Read:         false,
		TargetRole:   notice.TargetRole,
		TargetUserID: notice.TargetUserID,
	}
}

func (e *notificationEmitter) deliverPush(ctx context.Context, n *domain.Notification) {
	if e.pushSvc == nil {
		return
	}
	topic := "role-" + string(n.TargetRole)
	if n.TargetUserID != "" {
		topic = "user-" + n.TargetUserID
	}
	data := map[string]string{"notification_id": n.ID, "kind": string(n.Kind), "type": string(n.Type)}
	if err := e.pushSvc.Publish(ctx, topic, n.Title, n.Message, data); err != nil {
		e.metrics.NotificationFailed("push")
	}
}

func (e *notificationEmitter) deliverEmail(ctx context.Context, n *domain.Notification) {
	if e.emailSvc == nil || n.TargetUserID == "" || e.userRepo == nil {
		return
	}
	user, err := e.userRepo.GetByID(ctx, n.TargetUserID)
	if err != nil || user.Email == "" {
		return
	}
	if err := e.emailSvc.Send(ctx, user.Email, user.Name, n.Title, n.Message); err != nil {
		e.metrics.NotificationFailed("email")
	}
}

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

// ListNotifications returns what the actor can see, newest first. A zero since
// returns everything.
func (s *notificationService) ListNotifications(ctx context.Context, actor session.Session, since time.Time) ([]domain.Notification, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.noteRepo.ListFor(ctx, actor.UserID, actor.Role, since, notificationListLimit)
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor session.Session, id string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	return s.noteRepo.MarkAsRead(ctx, id, actor.UserID, actor.Role)
}
