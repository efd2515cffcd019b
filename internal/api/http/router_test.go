package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	apihttp "eventstaff-backend/internal/api/http"
	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/i18n"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/offline"
	"eventstaff-backend/internal/repository/memory"
	"eventstaff-backend/internal/security"
	"eventstaff-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

type server struct {
	backend *memory.Store
	tokens  security.TokenManager
	handler http.Handler
	admin   string
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	store, err := offline.Open(ctx, filepath.Join(t.TempDir(), "offline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	backend := memory.NewStore()
	m := metrics.NewManager()
	tokens := security.NewTokenManager(testSecret, 0)
	fallback := service.NewFallback(store, m)
	emitter := service.NewNotificationEmitter(backend.NotificationRepository, backend.UserRepository, i18n.NewTranslator("pt"), "pt", nil, nil, m)

	events := service.NewEventService(backend.EventRepository, fallback)
	ledger := service.NewVacancyLedger(backend.FunctionRepository, m)
	apps := service.NewApplicationService(backend.ApplicationRepository, backend.UserRepository, events, ledger, emitter, fallback, m)

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Services: apihttp.Services{
			Auth:          service.NewAuthService(backend.UserRepository, tokens),
			Users:         service.NewUserService(backend.UserRepository),
			Events:        events,
			Applications:  apps,
			Evaluations:   service.NewEvaluationService(backend.EvaluationRepository, backend.UserRepository, backend.ApplicationRepository, events, emitter),
			Notifications: service.NewNotificationService(backend.NotificationRepository),
			Reports:       service.NewReportService(backend.EventRepository, backend.UserRepository),
			Sync:          service.NewSyncService(backend, fallback),
		},
		Tokens:  tokens,
		Pending: fallback,
		Backend: backend,
		Metrics: m,
	})

	require.NoError(t, backend.UserRepository.Create(ctx, &domain.User{
		ID:     "admin-1",
		Name:   "Admin",
		Email:  "admin@example.com",
		Role:   domain.UserRoleAdmin,
		Rating: domain.DefaultRating,
	}))
	adminToken, err := tokens.GenerateAccessToken("admin-1", "admin@example.com", string(domain.UserRoleAdmin))
	require.NoError(t, err)

	return &server{backend: backend, tokens: tokens, handler: router, admin: adminToken}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type authBody struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (s *server) register(t *testing.T, name, email string) authBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "segredo123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[authBody](t, rec)
}

func (s *server) createEvent(t *testing.T, vacancies int32) domain.Event {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/events", s.admin, map[string]any{
		"title": "Formatura",
		"date":  "2026-12-12",
		"time":  "20:00",
		"functions": []map[string]any{
			{"name": "Barman", "pay": 200, "vacancies": vacancies},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[domain.Event](t, rec)
}

func TestRouter_Health(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	s.backend.SetUnavailable(true)
	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.JSONEq(t, `{"status":"degraded"}`, rec.Body.String())
}

func TestRouter_Auth(t *testing.T) {
	s := newServer(t)

	t.Run("Register And Login", func(t *testing.T) {
		reg := s.register(t, "Ana Souza", "Ana@Example.com")
		assert.Equal(t, "ana@example.com", reg.User.Email)
		assert.Equal(t, domain.UserRoleStaff, reg.User.Role)
		assert.NotEmpty(t, reg.Token)

		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "ana@example.com", "password": "segredo123",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Email Taken", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "Outra Ana", "email": "ana@example.com", "password": "segredo123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "ana@example.com", "password": "errada",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Unknown Field", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "ana@example.com", "password": "segredo123", "role": "ADMIN",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Missing Token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Staff On Admin Route", func(t *testing.T) {
		bruno := s.register(t, "Bruno Lima", "bruno@example.com")
		rec := s.do(t, http.MethodPost, "/api/v1/events", bruno.Token, map[string]any{"title": "x"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRouter_ApplicationFlow(t *testing.T) {
	s := newServer(t)
	ana := s.register(t, "Ana Souza", "ana@example.com")
	bruno := s.register(t, "Bruno Lima", "bruno@example.com")
	event := s.createEvent(t, 1)
	fnID := event.Functions[0].ID

	submit := func(token string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/v1/events/"+event.ID+"/applications", token, map[string]string{"function_id": fnID})
	}

	rec := submit(ana.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	anaApp := decodeBody[domain.Application](t, rec)
	assert.Equal(t, domain.ApplicationStatusPending, anaApp.Status)

	assert.Equal(t, http.StatusConflict, submit(ana.Token).Code)

	rec = submit(bruno.Token)
	require.Equal(t, http.StatusCreated, rec.Code)
	brunoApp := decodeBody[domain.Application](t, rec)

	t.Run("Staff Only See Their Own", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/applications?event_id="+event.ID, ana.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Applications []domain.Application `json:"applications"`
		}](t, rec)
		require.Len(t, body.Applications, 1)
		assert.Equal(t, anaApp.ID, body.Applications[0].ID)

		rec = s.do(t, http.MethodGet, "/api/v1/applications?event_id="+event.ID, s.admin, nil)
		body = decodeBody[struct {
			Applications []domain.Application `json:"applications"`
		}](t, rec)
		assert.Len(t, body.Applications, 2)
	})

	t.Run("Approve Until Full", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/v1/applications/"+anaApp.ID+"/status", s.admin, map[string]string{"status": "APPROVED"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodPut, "/api/v1/applications/"+brunoApp.ID+"/status", s.admin, map[string]string{"status": "APPROVED"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/v1/events/"+event.ID, ana.Token, nil)
		got := decodeBody[domain.Event](t, rec)
		assert.Equal(t, int32(1), got.Functions[0].Filled)
	})

	t.Run("Staff Cannot Set Status", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/v1/applications/"+brunoApp.ID+"/status", bruno.Token, map[string]string{"status": "APPROVED"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Cancel Requires Reason", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/applications/"+anaApp.ID+"/cancel", ana.Token, map[string]string{"reason": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Cancel Frees The Seat", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/applications/"+anaApp.ID+"/cancel", bruno.Token, map[string]string{"reason": "troca"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/v1/applications/"+anaApp.ID+"/cancel", ana.Token, map[string]string{"reason": "doente"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, domain.ApplicationStatusCancelled, decodeBody[domain.Application](t, rec).Status)

		rec = s.do(t, http.MethodGet, "/api/v1/events/"+event.ID, ana.Token, nil)
		assert.Equal(t, int32(0), decodeBody[domain.Event](t, rec).Functions[0].Filled)
	})

	t.Run("Admin Sees Cancellation Notice", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/notifications", s.admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Notifications []domain.Notification `json:"notifications"`
		}](t, rec)
		require.NotEmpty(t, body.Notifications)
		assert.Equal(t, domain.NotificationKindApplicationCancelled, body.Notifications[0].Kind)

		rec = s.do(t, http.MethodPut, "/api/v1/notifications/"+body.Notifications[0].ID+"/read", s.admin, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("My Jobs", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/me/jobs", ana.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		jobs := decodeBody[domain.MyJobs](t, rec)
		assert.Len(t, jobs.History, 1)
	})
}

func TestRouter_SyncPendingHeader(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/events", s.admin, nil)
	assert.Empty(t, rec.Header().Get(apihttp.SyncPendingHeader))

	s.backend.SetUnavailable(true)
	rec = s.do(t, http.MethodPost, "/api/v1/events", s.admin, map[string]any{
		"title":     "Coquetel",
		"date":      "2026-12-20",
		"functions": []map[string]any{{"name": "Copeiro", "pay": 120, "vacancies": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(apihttp.SyncPendingHeader))

	rec = s.do(t, http.MethodGet, "/api/v1/sync/status", s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SyncStatus{Pending: 1, Offline: true}, decodeBody[domain.SyncStatus](t, rec))
}

func TestRouter_Validation(t *testing.T) {
	s := newServer(t)

	t.Run("Bad Notification Since", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/notifications?since=yesterday", s.admin, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Bad Ranking Limit", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/reports/ranking?limit=abc", s.admin, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown Event", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/events/missing", s.admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Delete Self", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/v1/users/admin-1", s.admin, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Delete User With Applications", func(t *testing.T) {
		dora := s.register(t, "Dora Alves", "dora@example.com")
		event := s.createEvent(t, 1)
		rec := s.do(t, http.MethodPost, "/api/v1/events/"+event.ID+"/applications", dora.Token, map[string]string{"function_id": event.Functions[0].ID})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodDelete, "/api/v1/users/"+dora.User.ID, s.admin, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		eli := s.register(t, "Eli Ramos", "eli@example.com")
		rec = s.do(t, http.MethodDelete, "/api/v1/users/"+eli.User.ID, s.admin, nil)
		assert.Less(t, rec.Code, 300, rec.Body.String())
	})
}

func TestRouter_Metrics(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodGet, "/api/v1/events", s.admin, nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventstaff_http_requests_total")
}
