package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"

	"github.com/lib/pq"
)

const userColumns = `id, name, email, password_hash, role, avatar, phone, type, rating, metrics, points, skills, uniforms, pix_key, created_on, updated_on`

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	logger.EnterMethod("userRepository.Create", "userID", u.ID, "role", u.Role)

	metrics, err := marshalMetrics(u.Metrics)
	if err != nil {
		logger.ExitMethodWithError("userRepository.Create", err, "reason", "failed to marshal metrics")
		return err
	}

	now := time.Now().UTC()
	u.CreatedOn = now
	u.UpdatedOn = now

	query := `INSERT INTO users (` + userColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	logger.DatabaseCall("INSERT", "users", "userID", u.ID)
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Avatar, u.Phone, u.Type, u.Rating, metrics,
		u.Points, pq.Array(u.Skills), pq.Array(u.Uniforms), u.PixKey, u.CreatedOn, u.UpdatedOn)
	logger.DatabaseResult("INSERT", affected(res), err, "userID", u.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			err = domain.ErrEmailTaken
		} else {
			err = classify(err)
		}
		logger.ExitMethodWithError("userRepository.Create", err, "userID", u.ID)
		return err
	}

	logger.ExitMethod("userRepository.Create", "userID", u.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	logger.DatabaseCall("SELECT", "users", "userID", id)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	logger.DatabaseCall("SELECT", "users", "email", email)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	metrics, err := marshalMetrics(u.Metrics)
	if err != nil {
		return err
	}
	u.UpdatedOn = time.Now().UTC()

	query := `UPDATE users SET name = $2, avatar = $3, phone = $4, type = $5, rating = $6, metrics = $7,
	          points = $8, skills = $9, uniforms = $10, pix_key = $11, updated_on = $12 WHERE id = $1`
	logger.DatabaseCall("UPDATE", "users", "userID", u.ID)
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Avatar, u.Phone, u.Type, u.Rating, metrics, u.Points,
		pq.Array(u.Skills), pq.Array(u.Uniforms), u.PixKey, u.UpdatedOn)
	n := affected(res)
	logger.DatabaseResult("UPDATE", n, err, "userID", u.ID)
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("DELETE", "users", "userID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	n := affected(res)
	logger.DatabaseResult("DELETE", n, err, "userID", id)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return domain.ErrUserHasHistory
		}
		return classify(err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ($1 = '' OR role = $1) ORDER BY name`
	logger.DatabaseCall("SELECT", "users", "role", role)
	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err)
		}
		users = append(users, *u)
	}
	return users, classify(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var metrics []byte
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar, &u.Phone, &u.Type,
		&u.Rating, &metrics, &u.Points, pq.Array(&u.Skills), pq.Array(&u.Uniforms), &u.PixKey,
		&u.CreatedOn, &u.UpdatedOn,
	); err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		u.Metrics = &domain.UserMetrics{}
		if err := json.Unmarshal(metrics, u.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for user %s: %w", u.ID, err)
		}
	}
	return &u, nil
}

// marshalMetrics returns an untyped nil for missing metrics so the column is
// written as NULL.
func marshalMetrics(m *domain.UserMetrics) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Join(domain.ErrValidation, err)
	}
	return b, nil
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
