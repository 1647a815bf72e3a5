package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/unihaven/placement-api/internal/model"
)

// NotificationRepo stores specialist notifications.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateBulkTx inserts one unread notification per specialist in a
// single statement.  An empty recipient list is a no-op.
func (r *NotificationRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, specialistIDs []uint64, reservationID uint64, typ model.NotificationType) error {
	if len(specialistIDs) == 0 {
		return nil
	}
	values := make([]string, 0, len(specialistIDs))
	args := make([]any, 0, len(specialistIDs)*3)
	for _, id := range specialistIDs {
		values = append(values, "(?, ?, ?, 0)")
		args = append(args, id, reservationID, typ)
	}
	q := `INSERT INTO notifications (specialist_id, reservation_id, type, is_read) VALUES ` + strings.Join(values, ",")
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ListBySpecialist returns a specialist's notifications, newest first.
func (r *NotificationRepo) ListBySpecialist(ctx context.Context, specialistID uint64, unreadOnly bool) ([]model.Notification, error) {
	q := `SELECT id, specialist_id, reservation_id, type, is_read, created_at
          FROM notifications WHERE specialist_id = ?`
	if unreadOnly {
		q += ` AND is_read = 0`
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, specialistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.SpecialistID, &n.ReservationID, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification as read.  sql.ErrNoRows is returned
// when it does not exist.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64) error {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM notifications WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err
}
