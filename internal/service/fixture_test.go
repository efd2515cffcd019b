package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/offline"
	"eventstaff-backend/internal/repository/memory"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"

	"github.com/stretchr/testify/require"
)

var (
	admin = session.Session{UserID: "admin-1", Email: "admin@example.com", Role: domain.UserRoleAdmin}
	ana   = session.Session{UserID: "staff-1", Email: "ana@example.com", Role: domain.UserRoleStaff}
	bruno = session.Session{UserID: "staff-2", Email: "bruno@example.com", Role: domain.UserRoleStaff}
	carla = session.Session{UserID: "staff-3", Email: "carla@example.com", Role: domain.UserRoleStaff}
)

type fixture struct {
	backend  *memory.Store
	store    *offline.Store
	metrics  *metrics.Manager
	emitter  *recordingEmitter
	events   service.EventService
	apps     service.ApplicationService
	evals    service.EvaluationService
	replayer *service.Replayer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := offline.Open(ctx, filepath.Join(t.TempDir(), "offline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	backend := memory.NewStore()
	m := metrics.NewManager()
	fallback := service.NewFallback(store, m)
	emitter := &recordingEmitter{}

	events := service.NewEventService(backend.EventRepository, fallback)
	ledger := service.NewVacancyLedger(backend.FunctionRepository, m)
	apps := service.NewApplicationService(backend.ApplicationRepository, backend.UserRepository, events, ledger, emitter, fallback, m)

	f := &fixture{
		backend:  backend,
		store:    store,
		metrics:  m,
		emitter:  emitter,
		events:   events,
		apps:     apps,
		evals:    service.NewEvaluationService(backend.EvaluationRepository, backend.UserRepository, backend.ApplicationRepository, events, emitter),
		replayer: service.NewReplayer(store, backend.EventRepository, backend.ApplicationRepository, apps, 3, m),
	}
	for _, s := range []session.Session{admin, ana, bruno, carla} {
		require.NoError(t, backend.UserRepository.Create(ctx, &domain.User{
			ID:     s.UserID,
			Name:   s.Email,
			Email:  s.Email,
			Role:   s.Role,
			Rating: domain.DefaultRating,
		}))
	}
	return f
}

// event creates an OPEN event with a single function.
func (f *fixture) event(t *testing.T, vacancies int32) *domain.Event {
	t.Helper()
	e, err := f.events.CreateEvent(context.Background(), admin, &domain.Event{
		Title: "Festa de Casamento",
		Date:  "2026-11-20",
		Time:  "19:00",
		Functions: []domain.Function{
			{Name: "Garçom", Pay: 150, Vacancies: vacancies},
		},
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) filled(t *testing.T, functionID string) int32 {
	t.Helper()
	fn, err := f.backend.FunctionRepository.GetByID(context.Background(), functionID)
	require.NoError(t, err)
	return fn.Filled
}

// scrape renders the metrics exposition.
func (f *fixture) scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
