package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-ops/rims-api/internal/models"
)

// NotificationRepository provides database access for the user inbox.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a standalone inbox entry outside any ledger transaction.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO notifications (user_id, title, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Type, n.CreatedAt,
	).Scan(&n.ID); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's inbox, newest first, with the unread count.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) ([]models.Notification, int, int, error) {
	where := "user_id = $1"
	if unreadOnly {
		where += " AND is_read = FALSE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE %s`, where), userID); err != nil {
		return nil, 0, 0, fmt.Errorf("count notifications: %w", err)
	}

	var unread int
	if err := r.db.GetContext(ctx, &unread, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return nil, 0, 0, fmt.Errorf("count unread notifications: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, pageSize, (page-1)*pageSize)

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, 0, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, unread, nil
}

// MarkRead flips a single entry to read. Ownership is enforced in the query.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flips every unread entry of a user to read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Delete removes a single inbox entry owned by the user.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll clears a user's inbox.
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	const query = `DELETE FROM notifications WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all notifications: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
