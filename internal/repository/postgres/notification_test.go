package postgres_test

import (
	"context"
	"testing"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)
	n := &domain.Notification{
		ID: "n1", Kind: domain.NotificationKindNewApplication, Type: domain.NotificationTypeInfo,
		Title: "Nova candidatura", Message: "Ana se candidatou", TargetRole: domain.UserRoleAdmin,
	}

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("n1", domain.NotificationKindNewApplication, domain.NotificationTypeInfo, "Nova candidatura",
			"Ana se candidatou", false, domain.UserRoleAdmin, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM notifications WHERE \\(target_user_id = \\$1 OR (.+) created_on > \\$3\\) (.+) LIMIT \\$4").
		WithArgs("u1", "STAFF", sqlmock.AnyArg(), int32(50)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "type", "title", "message", "is_read", "target_role", "target_user_id", "created_on"}).
			AddRow("n2", "STATUS_CHANGED", "SUCCESS", "Aprovado", "Você foi aprovado", false, "STAFF", "u1", now))

	notes, err := repo.ListFor(context.Background(), "u1", domain.UserRoleStaff, now.Add(-time.Hour), 50)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationTypeSuccess, notes[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
			WithArgs("n1", "u1", "STAFF").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.MarkAsRead(context.Background(), "n1", "u1", domain.UserRoleStaff))
	})

	t.Run("NotVisible", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
			WithArgs("n9", "u1", "STAFF").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.MarkAsRead(context.Background(), "n9", "u1", domain.UserRoleStaff), domain.ErrNotificationNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
