package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
)

const applicationColumns = `id, event_id, user_id, function_id, status, applied_at, cancellation_reason, updated_on`

type applicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) repository.ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	logger.EnterMethod("applicationRepository.Create", "applicationID", a.ID, "eventID", a.EventID, "userID", a.UserID)

	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now().UTC()
	}
	if a.UpdatedOn.IsZero() {
		a.UpdatedOn = a.AppliedAt
	}

	query := `INSERT INTO applications (` + applicationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`
	logger.DatabaseCall("INSERT", "applications", "applicationID", a.ID)
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.EventID, a.UserID, a.FunctionID, a.Status, a.AppliedAt, a.CancellationReason, a.UpdatedOn)
	logger.DatabaseResult("INSERT", affected(res), err, "applicationID", a.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			err = domain.ErrDuplicateActive
		} else {
			err = classify(err)
		}
		logger.ExitMethodWithError("applicationRepository.Create", err, "applicationID", a.ID)
		return err
	}

	logger.ExitMethod("applicationRepository.Create", "applicationID", a.ID)
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	logger.DatabaseCall("SELECT", "applications", "applicationID", id)
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrApplicationNotFound)
	}
	return a, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, a *domain.Application, from domain.ApplicationStatus) error {
	a.UpdatedOn = time.Now().UTC()

	query := `UPDATE applications SET status = $2, cancellation_reason = $3, updated_on = $4
	          WHERE id = $1 AND status = $5`
	logger.DatabaseCall("UPDATE", "applications", "applicationID", a.ID, "from", from, "status", a.Status)
	res, err := r.db.ExecContext(ctx, query, a.ID, a.Status, a.CancellationReason, a.UpdatedOn, from)
	n := affected(res)
	logger.DatabaseResult("UPDATE", n, err, "applicationID", a.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return domain.ErrDuplicateActive
		}
		return classify(err)
	}
	if n == 0 {
		// Either the row is gone or another writer moved it first.
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return err
		}
		return domain.ErrStaleStatus
	}
	return nil
}

func (r *applicationRepository) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
	          WHERE ($1 = '' OR event_id = $1) AND ($2 = '' OR user_id = $2)
	            AND ($3 = '' OR function_id = $3) AND ($4 = '' OR status = $4)
	          ORDER BY applied_at, id`
	logger.DatabaseCall("SELECT", "applications", "eventID", f.EventID, "userID", f.UserID)
	rows, err := r.db.QueryContext(ctx, query, f.EventID, f.UserID, f.FunctionID, string(f.Status))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, classify(err)
		}
		apps = append(apps, *a)
	}
	return apps, classify(rows.Err())
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var a domain.Application
	if err := row.Scan(
		&a.ID, &a.EventID, &a.UserID, &a.FunctionID, &a.Status, &a.AppliedAt, &a.CancellationReason, &a.UpdatedOn,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
