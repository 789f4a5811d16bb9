package repository

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, user_id, type, title, message, read, loan_id, penalty_id, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, q Querier, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, read, loan_id, penalty_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(r.db, q).ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.LoanID, n.PenaltyID, n.CreatedAt,
	)
	return err
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, q Querier, n *domain.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, read, loan_id, penalty_id, created_at)
		SELECT $1::uuid, $2::varchar, $3::varchar, $4::varchar, $5::text, $6::boolean, $7::uuid, $8::uuid, $9::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications WHERE loan_id = $7 AND type = $3
		)
		ON CONFLICT DO NOTHING
	`

	result, err := conn(r.db, q).ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.LoanID, n.PenaltyID, n.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows == 1, err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND (NOT $2 OR read = false)`
	if err := r.db.GetContext(ctx, &total, countQuery, userID, unreadOnly); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read = false)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	var notifications []domain.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, unreadOnly, params.PageSize, params.Offset())
	return notifications, total, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	query := `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows == 1, err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
