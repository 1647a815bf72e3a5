package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unihaven/placement-api/internal/database"
	"github.com/unihaven/placement-api/internal/model"
)

// RatingRepo persists ratings and their moderation state.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo returns a new RatingRepo bound to the given database.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

const ratingColumns = `id, accommodation_id, member_id, reservation_id, score, COALESCE(comment, ''),
       is_approved, moderated_by, moderation_date, COALESCE(moderation_note, ''), created_at`

func scanRating(s scanner) (*model.Rating, error) {
	var (
		rt          model.Rating
		moderatedBy sql.NullInt64
		moderatedAt sql.NullTime
	)
	err := s.Scan(
		&rt.ID, &rt.AccommodationID, &rt.MemberID, &rt.ReservationID, &rt.Score, &rt.Comment,
		&rt.IsApproved, &moderatedBy, &moderatedAt, &rt.ModerationNote, &rt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rt.ModeratedBy = idPtr(moderatedBy)
	if moderatedAt.Valid {
		t := moderatedAt.Time
		rt.ModerationDate = &t
	}
	return &rt, nil
}

// CreateTx inserts an approved, unmoderated rating.  A second rating
// for the same reservation fails with ErrDuplicate.
func (r *RatingRepo) CreateTx(ctx context.Context, tx *sql.Tx, rt *model.Rating) error {
	const q = `INSERT INTO ratings (accommodation_id, member_id, reservation_id, score, comment, is_approved)
               VALUES (?, ?, ?, ?, ?, 1)`
	res, err := tx.ExecContext(ctx, q, rt.AccommodationID, rt.MemberID, rt.ReservationID, rt.Score, rt.Comment)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.get(ctx, tx, `id = ?`, false, uint64(id))
	if err != nil {
		return err
	}
	*rt = *stored
	return nil
}

// ExistsForReservationTx reports whether the reservation has been rated.
func (r *RatingRepo) ExistsForReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings WHERE reservation_id = ?`, reservationID).Scan(&n)
	return n > 0, err
}

// GetByID returns a rating or sql.ErrNoRows.
func (r *RatingRepo) GetByID(ctx context.Context, id uint64) (*model.Rating, error) {
	return r.get(ctx, r.db, `id = ?`, false, id)
}

// GetForUpdateTx reads a rating and locks its row.
func (r *RatingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rating, error) {
	return r.get(ctx, tx, `id = ?`, true, id)
}

func (r *RatingRepo) get(ctx context.Context, q queryer, cond string, lock bool, args ...any) (*model.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE ` + cond
	if lock {
		query += ` FOR UPDATE`
	}
	return scanRating(q.QueryRowContext(ctx, query, args...))
}

// ModerateTx overwrites any earlier moderation decision.
func (r *RatingRepo) ModerateTx(ctx context.Context, tx *sql.Tx, id, specialistID uint64, approved bool, note string, at time.Time) error {
	const q = `UPDATE ratings
               SET is_approved = ?, moderated_by = ?, moderation_date = ?, moderation_note = ?
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, approved, specialistID, at.UTC(), note, id)
	return err
}

// ListPending returns ratings no specialist has reviewed yet, oldest
// first.
func (r *RatingRepo) ListPending(ctx context.Context) ([]model.Rating, error) {
	return r.list(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE moderated_by IS NULL ORDER BY created_at ASC, id ASC`)
}

// ListApprovedByAccommodation returns the visible ratings of a listing,
// newest first.
func (r *RatingRepo) ListApprovedByAccommodation(ctx context.Context, accommodationID uint64) ([]model.Rating, error) {
	return r.list(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE accommodation_id = ? AND is_approved = 1 ORDER BY created_at DESC, id DESC`, accommodationID)
}

// AverageApproved returns the mean approved score of a listing, or nil
// when it has no approved ratings.
func (r *RatingRepo) AverageApproved(ctx context.Context, accommodationID uint64) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(score) FROM ratings WHERE accommodation_id = ? AND is_approved = 1`, accommodationID,
	).Scan(&avg)
	if err != nil || !avg.Valid {
		return nil, err
	}
	v := avg.Float64
	return &v, nil
}

func (r *RatingRepo) list(ctx context.Context, q string, args ...any) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Rating, 0)
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}
