package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
)

const evaluationColumns = `id, event_id, user_id, punctuality, posture, productivity, agility, presence, notes, average, created_by, created_on`

type evaluationRepository struct {
	db *sql.DB
}

func NewEvaluationRepository(db *sql.DB) repository.EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, ev *domain.Evaluation) error {
	logger.EnterMethod("evaluationRepository.Create", "evaluationID", ev.ID, "userID", ev.UserID, "eventID", ev.EventID)

	if ev.CreatedOn.IsZero() {
		ev.CreatedOn = time.Now().UTC()
	}

	query := `INSERT INTO evaluations (` + evaluationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	logger.DatabaseCall("INSERT", "evaluations", "evaluationID", ev.ID)
	res, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.EventID, ev.UserID, ev.Punctuality, ev.Posture, ev.Productivity, ev.Agility,
		ev.Presence, ev.Notes, ev.Average, ev.CreatedBy, ev.CreatedOn)
	logger.DatabaseResult("INSERT", affected(res), err, "evaluationID", ev.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			err = domain.ErrEvaluationExists
		} else {
			err = classify(err)
		}
		logger.ExitMethodWithError("evaluationRepository.Create", err, "evaluationID", ev.ID)
		return err
	}

	logger.ExitMethod("evaluationRepository.Create", "evaluationID", ev.ID)
	return nil
}

// ListByUser returns the user's evaluations, most recent first.
func (r *evaluationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE user_id = $1 ORDER BY created_on DESC, id DESC`
	logger.DatabaseCall("SELECT", "evaluations", "userID", userID)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var evaluations []domain.Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, classify(err)
		}
		evaluations = append(evaluations, *ev)
	}
	return evaluations, classify(rows.Err())
}

func (r *evaluationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE event_id = $1 AND user_id = $2`
	logger.DatabaseCall("SELECT", "evaluations", "eventID", eventID, "userID", userID)
	ev, err := scanEvaluation(r.db.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return ev, nil
}

func scanEvaluation(row rowScanner) (*domain.Evaluation, error) {
	var ev domain.Evaluation
	if err := row.Scan(
		&ev.ID, &ev.EventID, &ev.UserID, &ev.Punctuality, &ev.Posture, &ev.Productivity, &ev.Agility,
		&ev.Presence, &ev.Notes, &ev.Average, &ev.CreatedBy, &ev.CreatedOn,
	); err != nil {
		return nil, err
	}
	return &ev, nil
}
