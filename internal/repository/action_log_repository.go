package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/unihaven/placement-api/internal/model"
)

// ActionLogRepo appends and queries audit entries.  Entries are never
// updated or deleted.
type ActionLogRepo struct {
	db *sql.DB
}

// NewActionLogRepo returns a new ActionLogRepo bound to the given database.
func NewActionLogRepo(db *sql.DB) *ActionLogRepo { return &ActionLogRepo{db: db} }

// AppendTx writes an entry in the caller's transaction.
func (r *ActionLogRepo) AppendTx(ctx context.Context, tx *sql.Tx, e *model.ActionLog) error {
	const q = `INSERT INTO action_logs
        (action_type, user_type, user_id, accommodation_id, reservation_id, rating_id, details)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		e.ActionType, e.UserType, nullableID(e.UserID),
		nullableID(e.AccommodationID), nullableID(e.ReservationID), nullableID(e.RatingID), e.Details,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ActionLogQuery filters and pages the audit trail.  Start and End are
// inclusive bounds on created_at; zero values are ignored.
type ActionLogQuery struct {
	ActionType      model.ActionType
	UserType        model.ActorType
	UserID          *uint64
	AccommodationID *uint64
	Start           time.Time
	End             time.Time
	Page            int
	PageSize        int
}

// List returns one page of entries, newest first, and the total number
// of matching entries.
func (r *ActionLogRepo) List(ctx context.Context, q ActionLogQuery) ([]model.ActionLog, int64, error) {
	where := []string{}
	args := []any{}

	if q.ActionType != "" {
		where = append(where, "action_type = ?")
		args = append(args, q.ActionType)
	}
	if q.UserType != "" {
		where = append(where, "user_type = ?")
		args = append(args, q.UserType)
	}
	if q.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *q.UserID)
	}
	if q.AccommodationID != nil {
		where = append(where, "accommodation_id = ?")
		args = append(args, *q.AccommodationID)
	}
	if !q.Start.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, q.Start.UTC())
	}
	if !q.End.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, q.End.UTC())
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM action_logs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL := `SELECT id, action_type, user_type, user_id, accommodation_id, reservation_id, rating_id,
               COALESCE(details, ''), created_at
        FROM action_logs
        WHERE ` + cond + `
        ORDER BY created_at DESC, id DESC
        LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.ActionLog, 0, limit)
	for rows.Next() {
		var (
			e                         model.ActionLog
			userID, accID, resID, rID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.ActionType, &e.UserType, &userID, &accID, &resID, &rID, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.UserID = idPtr(userID)
		e.AccommodationID = idPtr(accID)
		e.ReservationID = idPtr(resID)
		e.RatingID = idPtr(rID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
