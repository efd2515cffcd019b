package postgres_test

import (
	"context"
	"testing"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	eventCols    = []string{"id", "title", "date", "time", "address", "image_url", "type", "description", "status", "value_party_helper", "value_general_helper", "created_on", "updated_on"}
	functionCols = []string{"id", "event_id", "name", "description", "pay", "vacancies", "filled"}
)

func TestEventRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewEventRepository(db)
	ctx := context.Background()

	newEvent := func() *domain.Event {
		return &domain.Event{
			ID: "e1", Title: "Casamento", Date: "2026-11-20", Time: "18:00", Status: domain.EventStatusOpen,
			Functions: []domain.Function{
				{ID: "f1", Name: "Garçom", Pay: 150, Vacancies: 2},
				{ID: "f2", Name: "Copeiro", Pay: 120, Vacancies: 1},
			},
		}
	}

	t.Run("Success", func(t *testing.T) {
		e := newEvent()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events (.+) ON CONFLICT \\(id\\) DO UPDATE").
			WithArgs("e1", "Casamento", "2026-11-20", "18:00", "", "", "", "", domain.EventStatusOpen,
				nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO event_functions").
			WithArgs("f1", "e1", 0, "Garçom", "", 150.0, int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"filled"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO event_functions").
			WithArgs("f2", "e1", 1, "Copeiro", "", 120.0, int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"filled"}).AddRow(0))
		mock.ExpectCommit()

		require.NoError(t, repo.Upsert(ctx, e))
		assert.Equal(t, int32(1), e.Functions[0].Filled)
		assert.Equal(t, "e1", e.Functions[1].EventID)
	})

	t.Run("CannotReduceVacancies", func(t *testing.T) {
		e := newEvent()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO event_functions").
			WillReturnRows(sqlmock.NewRows([]string{"filled"}))
		mock.ExpectQuery("SELECT event_id, filled FROM event_functions WHERE id = \\$1").
			WithArgs("f1").
			WillReturnRows(sqlmock.NewRows([]string{"event_id", "filled"}).AddRow("e1", 3))
		mock.ExpectRollback()

		err := repo.Upsert(ctx, e)
		assert.ErrorIs(t, err, domain.ErrCannotReduceVacancies)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("FunctionOfAnotherEvent", func(t *testing.T) {
		e := newEvent()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO event_functions").
			WillReturnRows(sqlmock.NewRows([]string{"filled"}))
		mock.ExpectQuery("SELECT event_id, filled FROM event_functions").
			WillReturnRows(sqlmock.NewRows([]string{"event_id", "filled"}).AddRow("other", 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Upsert(ctx, e), domain.ErrFunctionMismatch)
	})

	t.Run("Unavailable", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(connRefused())

		assert.ErrorIs(t, repo.Upsert(ctx, newEvent()), domain.ErrBackendUnavailable)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewEventRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1").
			WithArgs("e1").
			WillReturnRows(sqlmock.NewRows(eventCols).
				AddRow("e1", "Casamento", "2026-11-20", "18:00", "Rua A", "", "Casamento", "", "FORMING", 80.0, nil, now, now))
		mock.ExpectQuery("SELECT (.+) FROM event_functions WHERE event_id = ANY\\(\\$1\\)").
			WithArgs(pq.Array([]string{"e1"})).
			WillReturnRows(sqlmock.NewRows(functionCols).
				AddRow("f1", "e1", "Garçom", "", 150.0, 2, 2).
				AddRow("f2", "e1", "Copeiro", "", 120.0, 1, 0))

		e, err := repo.GetByID(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusForming, e.Status)
		require.NotNil(t, e.ValuePartyHelper)
		assert.Equal(t, 80.0, *e.ValuePartyHelper)
		assert.Nil(t, e.ValueGeneralHelper)
		require.Len(t, e.Functions, 2)
		assert.False(t, e.Functions[0].HasCapacity())
		assert.True(t, e.Functions[1].HasCapacity())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(eventCols))

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewEventRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM events WHERE (.+) ORDER BY date").
		WithArgs("OPEN").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e1", "A", "2026-11-20", "18:00", "", "", "", "", "OPEN", nil, nil, now, now).
			AddRow("e2", "B", "2026-12-01", "10:00", "", "", "", "", "OPEN", nil, nil, now, now))
	mock.ExpectQuery("SELECT (.+) FROM event_functions").
		WithArgs(pq.Array([]string{"e1", "e2"})).
		WillReturnRows(sqlmock.NewRows(functionCols).
			AddRow("f2", "e2", "Copeiro", "", 120.0, 1, 0))

	events, err := repo.List(context.Background(), domain.EventFilter{Status: domain.EventStatusOpen})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Empty(t, events[0].Functions)
	assert.Len(t, events[1].Functions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
