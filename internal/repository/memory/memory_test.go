package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, store *memory.Store, vacancies int32) *domain.Event {
	t.Helper()
	e := &domain.Event{
		ID: "e1", Title: "Formatura", Date: "2026-12-10", Status: domain.EventStatusOpen,
		Functions: []domain.Function{{ID: "f1", Name: "Garçom", Pay: 150, Vacancies: vacancies}},
	}
	require.NoError(t, store.EventRepository.Upsert(context.Background(), e))
	return e
}

func TestFunctions_IncrementFilled(t *testing.T) {
	store := memory.NewStore()
	seedEvent(t, store, 2)
	ctx := context.Background()

	t.Run("Capacity", func(t *testing.T) {
		_, err := store.FunctionRepository.IncrementFilled(ctx, "f1")
		require.NoError(t, err)
		f, err := store.FunctionRepository.IncrementFilled(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, int32(2), f.Filled)

		_, err = store.FunctionRepository.IncrementFilled(ctx, "f1")
		assert.ErrorIs(t, err, domain.ErrCapacity)
	})

	t.Run("DecrementFloor", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			_, moved, err := store.FunctionRepository.DecrementFilled(ctx, "f1")
			require.NoError(t, err)
			assert.Equal(t, i < 2, moved, "decrement %d", i)
		}
		f, err := store.FunctionRepository.GetByID(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, int32(0), f.Filled)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.FunctionRepository.IncrementFilled(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrFunctionNotFound)
	})
}

func TestFunctions_ConcurrentIncrement(t *testing.T) {
	store := memory.NewStore()
	seedEvent(t, store, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.FunctionRepository.IncrementFilled(context.Background(), "f1"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	f, _ := store.FunctionRepository.GetByID(context.Background(), "f1")
	assert.Equal(t, int32(5), f.Filled)
}

func TestEvents_Upsert(t *testing.T) {
	store := memory.NewStore()
	e := seedEvent(t, store, 2)
	ctx := context.Background()
	_, err := store.FunctionRepository.IncrementFilled(ctx, "f1")
	require.NoError(t, err)

	t.Run("KeepsFilled", func(t *testing.T) {
		e.Functions[0].Vacancies = 3
		e.Functions[0].Filled = 0
		e.Functions = append(e.Functions, domain.Function{ID: "f2", Name: "Copeiro", Vacancies: 1, Filled: 9})
		require.NoError(t, store.EventRepository.Upsert(ctx, e))

		got, err := store.EventRepository.GetByID(ctx, "e1")
		require.NoError(t, err)
		require.Len(t, got.Functions, 2)
		assert.Equal(t, int32(1), got.Functions[0].Filled)
		assert.Equal(t, int32(0), got.Functions[1].Filled)
	})

	t.Run("CannotReduceVacancies", func(t *testing.T) {
		shrunk := *e
		shrunk.Functions = []domain.Function{{ID: "f1", Name: "Garçom", Vacancies: 0}}
		assert.ErrorIs(t, store.EventRepository.Upsert(ctx, &shrunk), domain.ErrCannotReduceVacancies)
	})
}

func TestApplications_DuplicateActive(t *testing.T) {
	store := memory.NewStore()
	seedEvent(t, store, 2)
	ctx := context.Background()

	first := &domain.Application{ID: "a1", EventID: "e1", UserID: "u1", FunctionID: "f1", Status: domain.ApplicationStatusPending}
	require.NoError(t, store.ApplicationRepository.Create(ctx, first))

	// same id again is a no-op
	require.NoError(t, store.ApplicationRepository.Create(ctx, first))

	second := &domain.Application{ID: "a2", EventID: "e1", UserID: "u1", FunctionID: "f1", Status: domain.ApplicationStatusPending}
	assert.ErrorIs(t, store.ApplicationRepository.Create(ctx, second), domain.ErrDuplicateActive)

	first.Status = domain.ApplicationStatusCancelled
	require.NoError(t, store.ApplicationRepository.UpdateStatus(ctx, first, domain.ApplicationStatusPending))
	assert.NoError(t, store.ApplicationRepository.Create(ctx, second))
}

func TestApplications_UpdateStatus(t *testing.T) {
	store := memory.NewStore()
	seedEvent(t, store, 2)
	ctx := context.Background()

	app := &domain.Application{ID: "a1", EventID: "e1", UserID: "u1", FunctionID: "f1", Status: domain.ApplicationStatusPending}
	require.NoError(t, store.ApplicationRepository.Create(ctx, app))

	t.Run("Success", func(t *testing.T) {
		next := *app
		next.Status = domain.ApplicationStatusApproved
		require.NoError(t, store.ApplicationRepository.UpdateStatus(ctx, &next, domain.ApplicationStatusPending))
	})

	t.Run("StatusChangedConcurrently", func(t *testing.T) {
		next := *app
		next.Status = domain.ApplicationStatusRejected
		err := store.ApplicationRepository.UpdateStatus(ctx, &next, domain.ApplicationStatusPending)
		assert.ErrorIs(t, err, domain.ErrStaleStatus)

		got, err := store.ApplicationRepository.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusApproved, got.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		err := store.ApplicationRepository.UpdateStatus(ctx, &domain.Application{ID: "nope"}, domain.ApplicationStatusPending)
		assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
	})
}

func TestUsers_DeleteWithHistory(t *testing.T) {
	store := memory.NewStore()
	seedEvent(t, store, 2)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, store.UserRepository.Create(ctx, &domain.User{ID: id, Email: id + "@example.com", Role: domain.UserRoleStaff}))
	}
	require.NoError(t, store.ApplicationRepository.Create(ctx, &domain.Application{ID: "a1", EventID: "e1", UserID: "u1", FunctionID: "f1", Status: domain.ApplicationStatusCancelled}))
	require.NoError(t, store.EvaluationRepository.Create(ctx, &domain.Evaluation{ID: "ev1", EventID: "e1", UserID: "u2"}))

	assert.ErrorIs(t, store.UserRepository.Delete(ctx, "u1"), domain.ErrUserHasHistory)
	assert.ErrorIs(t, store.UserRepository.Delete(ctx, "u2"), domain.ErrUserHasHistory)
	assert.NoError(t, store.UserRepository.Delete(ctx, "u3"))
	assert.ErrorIs(t, store.UserRepository.Delete(ctx, "u3"), domain.ErrUserNotFound)

	_, err := store.UserRepository.GetByID(ctx, "u1")
	assert.NoError(t, err)
}

func TestStore_Unavailable(t *testing.T) {
	store := memory.NewStore()
	store.SetUnavailable(true)

	_, err := store.EventRepository.List(context.Background(), domain.EventFilter{})
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.ErrorIs(t, store.Ping(context.Background()), domain.ErrBackendUnavailable)

	store.SetUnavailable(false)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNotifications_Visibility(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.NotificationRepository.Create(ctx, &domain.Notification{ID: "n1", TargetRole: domain.UserRoleAdmin}))
	require.NoError(t, store.NotificationRepository.Create(ctx, &domain.Notification{ID: "n2", TargetRole: domain.UserRoleStaff, TargetUserID: "u1"}))
	require.NoError(t, store.NotificationRepository.Create(ctx, &domain.Notification{ID: "n3", TargetRole: domain.UserRoleStaff, TargetUserID: "u2"}))

	notes, err := store.NotificationRepository.ListFor(ctx, "u1", domain.UserRoleStaff, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "n2", notes[0].ID)

	assert.ErrorIs(t, store.NotificationRepository.MarkAsRead(ctx, "n3", "u1", domain.UserRoleStaff), domain.ErrNotificationNotFound)
	assert.NoError(t, store.NotificationRepository.MarkAsRead(ctx, "n1", "admin", domain.UserRoleAdmin))
}

func TestNotifications_SinceBeforeLimit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		require.NoError(t, store.NotificationRepository.Create(ctx, &domain.Notification{
			ID: fmt.Sprintf("n%02d", i), TargetRole: domain.UserRoleStaff, CreatedOn: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("Since", func(t *testing.T) {
		notes, err := store.NotificationRepository.ListFor(ctx, "u1", domain.UserRoleStaff, base.Add(49*time.Minute), 50)
		require.NoError(t, err)
		require.Len(t, notes, 10)
		assert.Equal(t, "n59", notes[0].ID)
		assert.Equal(t, "n50", notes[9].ID)
	})

	t.Run("Capped", func(t *testing.T) {
		notes, err := store.NotificationRepository.ListFor(ctx, "u1", domain.UserRoleStaff, base.Add(-time.Minute), 50)
		require.NoError(t, err)
		require.Len(t, notes, 50)
		assert.Equal(t, "n59", notes[0].ID)
		assert.Equal(t, "n10", notes[49].ID)
	})
}
