package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/unihaven/placement-api/internal/model"
)

// ReservationRepo persists reservations.  Status changes go through
// UpdateStatusTx so they can share a transaction with the availability
// flip and the audit entry that accompany them.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `r.id, r.accommodation_id, r.member_id, r.reserved_from, r.reserved_to,
       r.contact_name, r.contact_phone, r.status, r.created_at, r.updated_at`

func scanReservation(s scanner, extra ...any) (*model.Reservation, error) {
	var res model.Reservation
	dest := []any{
		&res.ID, &res.AccommodationID, &res.MemberID, &res.ReservedFrom, &res.ReservedTo,
		&res.ContactName, &res.ContactPhone, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and reads back the stored row, populating the generated
// ID and timestamps on res.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
        (accommodation_id, member_id, reserved_from, reserved_to, contact_name, contact_phone, status)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.AccommodationID, res.MemberID, res.ReservedFrom, res.ReservedTo,
		res.ContactName, res.ContactPhone, res.Status,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.get(ctx, tx, uint64(id), false)
	if err != nil {
		return err
	}
	*res = *stored
	return nil
}

// GetByID returns a reservation or sql.ErrNoRows.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return r.get(ctx, r.db, id, false)
}

// GetForUpdateTx reads a reservation and locks its row.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	return r.get(ctx, tx, id, true)
}

func (r *ReservationRepo) get(ctx context.Context, q queryer, id uint64, lock bool) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	return scanReservation(q.QueryRowContext(ctx, query, id))
}

// UpdateStatusTx sets the status of a reservation.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}

// CountActiveTx counts PENDING and CONFIRMED reservations on a listing.
func (r *ReservationRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, accommodationID uint64) (int, error) {
	active := model.ActiveStatuses()
	placeholders := make([]string, len(active))
	args := []any{accommodationID}
	for i, s := range active {
		placeholders[i] = "?"
		args = append(args, s)
	}
	q := `SELECT COUNT(*) FROM reservations WHERE accommodation_id = ? AND status IN (` + strings.Join(placeholders, ",") + `)`
	var n int
	err := tx.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// ListByMember returns a member's reservations with a short summary of
// each accommodation, newest first.  An empty slice is returned when
// the member has none.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `, a.id, a.name, a.building_name, a.address
          FROM reservations r
          JOIN accommodations a ON a.id = r.accommodation_id
          WHERE r.member_id = ?
          ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var ref model.AccommodationRef
		res, err := scanReservation(rows, &ref.ID, &ref.Name, &ref.BuildingName, &ref.Address)
		if err != nil {
			return nil, err
		}
		res.Accommodation = &ref
		out = append(out, *res)
	}
	return out, rows.Err()
}
