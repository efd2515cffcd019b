package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
)

const notificationColumns = `id, kind, type, title, message, is_read, target_role, target_user_id, created_on`

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "kind", n.Kind, "targetRole", n.TargetRole, "targetUserID", n.TargetUserID)

	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now().UTC()
	}

	query := `INSERT INTO notifications (` + notificationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	logger.DatabaseCall("INSERT", "notifications", "notificationID", n.ID)
	res, err := r.db.ExecContext(ctx, query,
		n.ID, n.Kind, n.Type, n.Title, n.Message, n.Read, n.TargetRole, n.TargetUserID, n.CreatedOn)
	logger.DatabaseResult("INSERT", affected(res), err, "notificationID", n.ID)

	if err != nil {
		err = classify(err)
		logger.ExitMethodWithError("notificationRepository.Create", err, "notificationID", n.ID)
		return err
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

// ListFor returns notifications addressed to the user directly or, when they
// carry no user target, to the user's role. Newest first.
func (r *notificationRepository) ListFor(ctx context.Context, userID string, role domain.UserRole, since time.Time, limit int32) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
	          WHERE (target_user_id = $1 OR (target_user_id = '' AND target_role = $2))
	            AND ($3::timestamptz IS NULL OR created_on > $3)
	          ORDER BY created_on DESC, id DESC LIMIT $4`
	after := sql.NullTime{Time: since, Valid: !since.IsZero()}
	logger.DatabaseCall("SELECT", "notifications", "userID", userID, "role", role, "since", since)
	rows, err := r.db.QueryContext(ctx, query, userID, string(role), after, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.Kind, &n.Type, &n.Title, &n.Message, &n.Read, &n.TargetRole, &n.TargetUserID, &n.CreatedOn,
		); err != nil {
			return nil, classify(err)
		}
		notes = append(notes, n)
	}
	return notes, classify(rows.Err())
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string, role domain.UserRole) error {
	query := `UPDATE notifications SET is_read = TRUE
	          WHERE id = $1 AND (target_user_id = $2 OR (target_user_id = '' AND target_role = $3))`
	logger.DatabaseCall("UPDATE", "notifications", "notificationID", id, "userID", userID)
	res, err := r.db.ExecContext(ctx, query, id, userID, string(role))
	n := affected(res)
	logger.DatabaseResult("UPDATE", n, err, "notificationID", id)
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
