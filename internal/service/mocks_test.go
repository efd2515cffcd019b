package service_test

import (
	"context"
	"sync"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepo) List(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNotificationRepo) ListFor(ctx context.Context, userID string, role domain.UserRole, since time.Time, limit int32) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, role, since, limit)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID string, role domain.UserRole) error {
	args := m.Called(ctx, id, userID, role)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Send(ctx context.Context, toEmail, toName, subject, body string) error {
	args := m.Called(ctx, toEmail, toName, subject, body)
	return args.Error(0)
}

type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) Publish(ctx context.Context, topic, title, body string, data map[string]string) error {
	args := m.Called(ctx, topic, title, body, data)
	return args.Error(0)
}

// recordingEmitter keeps every notice it receives.
type recordingEmitter struct {
	mu      sync.Mutex
	notices []service.Notice
}

func (e *recordingEmitter) Emit(ctx context.Context, n service.Notice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notices = append(e.notices, n)
}

func (e *recordingEmitter) kinds() []domain.NotificationKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(e.notices))
	for _, n := range e.notices {
		out = append(out, n.Kind)
	}
	return out
}

func (e *recordingEmitter) last() service.Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notices[len(e.notices)-1]
}
