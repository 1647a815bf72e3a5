package repository

import (
	"context"
	"database/sql"

	"github.com/unihaven/placement-api/internal/model"
)

// PhotoRepo persists accommodation photo metadata.  The image bytes
// live in the object store under ObjectKey.
type PhotoRepo struct {
	db *sql.DB
}

// NewPhotoRepo returns a new PhotoRepo bound to the given database.
func NewPhotoRepo(db *sql.DB) *PhotoRepo { return &PhotoRepo{db: db} }

const photoColumns = `id, accommodation_id, object_key, url, caption, sort_order, is_primary, created_at`

func scanPhoto(s scanner) (*model.AccommodationPhoto, error) {
	var p model.AccommodationPhoto
	if err := s.Scan(&p.ID, &p.AccommodationID, &p.ObjectKey, &p.URL, &p.Caption, &p.SortOrder, &p.IsPrimary, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateTx inserts a photo.  When it is primary, call ClearPrimaryTx
// first in the same transaction.
func (r *PhotoRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.AccommodationPhoto) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO accommodation_photos (accommodation_id, object_key, url, caption, sort_order, is_primary)
         VALUES (?, ?, ?, ?, ?, ?)`,
		p.AccommodationID, p.ObjectKey, p.URL, p.Caption, p.SortOrder, p.IsPrimary,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanPhoto(tx.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM accommodation_photos WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// ClearPrimaryTx unsets the primary flag on every photo of a listing.
func (r *PhotoRepo) ClearPrimaryTx(ctx context.Context, tx *sql.Tx, accommodationID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accommodation_photos SET is_primary = 0 WHERE accommodation_id = ? AND is_primary = 1`, accommodationID)
	return err
}

// SetPrimaryTx flags a single photo as primary.
func (r *PhotoRepo) SetPrimaryTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE accommodation_photos SET is_primary = 1 WHERE id = ?`, id)
	return err
}

// GetByID returns a photo or sql.ErrNoRows.
func (r *PhotoRepo) GetByID(ctx context.Context, id uint64) (*model.AccommodationPhoto, error) {
	return scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM accommodation_photos WHERE id = ?`, id))
}

// GetForUpdateTx reads a photo and locks its row.
func (r *PhotoRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.AccommodationPhoto, error) {
	return scanPhoto(tx.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM accommodation_photos WHERE id = ? FOR UPDATE`, id))
}

// ListByAccommodation returns photos ordered by their explicit order,
// then by upload time.
func (r *PhotoRepo) ListByAccommodation(ctx context.Context, accommodationID uint64) ([]model.AccommodationPhoto, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM accommodation_photos WHERE accommodation_id = ? ORDER BY sort_order ASC, created_at ASC, id ASC`,
		accommodationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AccommodationPhoto, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ObjectKeysByAccommodationTx lists the stored object keys of a
// listing so they can be removed after the rows cascade away.
func (r *PhotoRepo) ObjectKeysByAccommodationTx(ctx context.Context, tx *sql.Tx, accommodationID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT object_key FROM accommodation_photos WHERE accommodation_id = ?`, accommodationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DeleteTx removes a photo row.
func (r *PhotoRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM accommodation_photos WHERE id = ?`, id)
	return err
}
