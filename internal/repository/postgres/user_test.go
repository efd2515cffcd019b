package postgres_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "password_hash", "role", "avatar", "phone", "type", "rating", "metrics", "points", "skills", "uniforms", "pix_key", "created_on", "updated_on"}

func connRefused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(userCols).
			AddRow("u1", "Ana", "ana@test.com", "hash", "STAFF", "", "123", "AVULSO", 4.5,
				[]byte(`{"punctuality":5,"posture":4,"productivity":4.5,"agility":4.5}`), 300,
				"{garçom,bar}", "{}", "pix", now, now)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs("u1").
			WillReturnRows(rows)

		user, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ana", user.Name)
		assert.Equal(t, domain.UserRoleStaff, user.Role)
		assert.Equal(t, 4.5, user.Rating)
		assert.Equal(t, int32(300), user.Points)
		assert.Equal(t, []string{"garçom", "bar"}, user.Skills)
		require.NotNil(t, user.Metrics)
		assert.Equal(t, 4.0, user.Metrics.Posture)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(userCols))

		user, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.Nil(t, user)
	})

	t.Run("Unavailable", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs("u1").
			WillReturnError(connRefused())

		_, err := repo.GetByID(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		u := &domain.User{ID: "u1", Name: "Ana", Email: "ana@test.com", PasswordHash: "hash",
			Role: domain.UserRoleStaff, Type: domain.UserTypeFreelance, Rating: domain.DefaultRating}

		mock.ExpectExec("INSERT INTO users").
			WithArgs("u1", "Ana", "ana@test.com", "hash", domain.UserRoleStaff, "", "", domain.UserTypeFreelance,
				5.0, nil, int32(0), sqlmock.AnyArg(), sqlmock.AnyArg(), "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, u)
		assert.NoError(t, err)
		assert.False(t, u.CreatedOn.IsZero())
	})

	t.Run("EmailTaken", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := repo.Create(ctx, &domain.User{ID: "u2", Email: "ana@test.com"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewUserRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), "u1"))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs("u2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), "u2"), domain.ErrUserNotFound)
	})

	t.Run("HasHistory", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs("u3").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "applications_user_id_fkey"})
		assert.ErrorIs(t, repo.Delete(context.Background(), "u3"), domain.ErrUserHasHistory)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
