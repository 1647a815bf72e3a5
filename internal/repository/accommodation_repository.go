package repository

import (
	"context"
	"database/sql"

	"github.com/unihaven/placement-api/internal/model"
)

// AccommodationRepo persists listings.  The is_available column is
// only written through MarkUnavailableTx and SetAvailableTx.
type AccommodationRepo struct {
	db *sql.DB
}

// NewAccommodationRepo returns a new AccommodationRepo bound to the given database.
func NewAccommodationRepo(db *sql.DB) *AccommodationRepo { return &AccommodationRepo{db: db} }

const accommodationColumns = `a.id, a.name, a.building_name, COALESCE(a.description, ''), a.type,
       a.num_bedrooms, a.num_beds, a.address, a.geo_address, a.latitude, a.longitude,
       a.available_from, a.available_to, a.monthly_rent, a.owner_id, a.is_available,
       a.created_at, a.updated_at`

func scanAccommodation(s scanner) (*model.Accommodation, error) {
	var a model.Accommodation
	err := s.Scan(
		&a.ID, &a.Name, &a.BuildingName, &a.Description, &a.Type,
		&a.NumBedrooms, &a.NumBeds, &a.Address, &a.GeoAddress, &a.Latitude, &a.Longitude,
		&a.AvailableFrom, &a.AvailableTo, &a.MonthlyRent, &a.OwnerID, &a.IsAvailable,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateTx inserts a listing and reads back its generated columns.
// New listings are always available.
func (r *AccommodationRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Accommodation) error {
	const q = `INSERT INTO accommodations
        (name, building_name, description, type, num_bedrooms, num_beds, address, geo_address,
         latitude, longitude, available_from, available_to, monthly_rent, owner_id, is_available)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`
	res, err := tx.ExecContext(ctx, q,
		a.Name, a.BuildingName, a.Description, a.Type, a.NumBedrooms, a.NumBeds, a.Address, a.GeoAddress,
		a.Latitude, a.Longitude, a.AvailableFrom, a.AvailableTo, a.MonthlyRent, a.OwnerID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.get(ctx, tx, uint64(id), false)
	if err != nil {
		return err
	}
	*a = *created
	return nil
}

// GetByID returns a listing or sql.ErrNoRows.
func (r *AccommodationRepo) GetByID(ctx context.Context, id uint64) (*model.Accommodation, error) {
	return r.get(ctx, r.db, id, false)
}

// GetForUpdateTx reads a listing and locks its row until the
// transaction ends, serialising concurrent reservations.
func (r *AccommodationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Accommodation, error) {
	return r.get(ctx, tx, id, true)
}

func (r *AccommodationRepo) get(ctx context.Context, q queryer, id uint64, lock bool) (*model.Accommodation, error) {
	query := `SELECT ` + accommodationColumns + ` FROM accommodations a WHERE a.id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	return scanAccommodation(q.QueryRowContext(ctx, query, id))
}

// MarkUnavailableTx flips is_available from true to false.  It is a
// compare-and-set: when the row was already unavailable nothing is
// written and ErrNotAvailable is returned.
func (r *AccommodationRepo) MarkUnavailableTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE accommodations SET is_available = 0 WHERE id = ? AND is_available = 1`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAvailable
	}
	return nil
}

// SetAvailableTx marks the listing available again.
func (r *AccommodationRepo) SetAvailableTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE accommodations SET is_available = 1 WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// UpdateTx writes every descriptive column of a listing.  It never
// touches is_available.
func (r *AccommodationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, a *model.Accommodation) error {
	const q = `UPDATE accommodations
        SET name = ?, building_name = ?, description = ?, type = ?, num_bedrooms = ?, num_beds = ?,
            address = ?, geo_address = ?, latitude = ?, longitude = ?,
            available_from = ?, available_to = ?, monthly_rent = ?, owner_id = ?
        WHERE id = ?`
	res, err := tx.ExecContext(ctx, q,
		a.Name, a.BuildingName, a.Description, a.Type, a.NumBedrooms, a.NumBeds,
		a.Address, a.GeoAddress, a.Latitude, a.Longitude,
		a.AvailableFrom, a.AvailableTo, a.MonthlyRent, a.OwnerID, a.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows too; confirm existence.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM accommodations WHERE id = ?`, a.ID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes a listing.  Photos, reservations, ratings and
// notifications cascade.
func (r *AccommodationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM accommodations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUnavailable returns listings currently held by a reservation or
// withdrawn by staff, most recently changed first.
func (r *AccommodationRepo) ListUnavailable(ctx context.Context) ([]model.Accommodation, error) {
	q := `SELECT ` + accommodationColumns + ` FROM accommodations a WHERE a.is_available = 0 ORDER BY a.updated_at DESC, a.id DESC`
	return r.list(ctx, q)
}

func (r *AccommodationRepo) list(ctx context.Context, q string, args ...any) ([]model.Accommodation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Accommodation, 0)
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
