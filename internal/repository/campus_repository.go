package repository

import (
	"context"
	"database/sql"

	"github.com/unihaven/placement-api/internal/model"
)

// CampusRepo persists the reference locations used for distance search.
type CampusRepo struct {
	db *sql.DB
}

// NewCampusRepo returns a new CampusRepo bound to the given database.
func NewCampusRepo(db *sql.DB) *CampusRepo { return &CampusRepo{db: db} }

// Create inserts a campus and sets its generated id.
func (r *CampusRepo) Create(ctx context.Context, c *model.Campus) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO campuses (name, latitude, longitude) VALUES (?, ?, ?)`, c.Name, c.Latitude, c.Longitude)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID returns a campus or sql.ErrNoRows.
func (r *CampusRepo) GetByID(ctx context.Context, id uint64) (*model.Campus, error) {
	var c model.Campus
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude FROM campuses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all campuses ordered by name.
func (r *CampusRepo) List(ctx context.Context) ([]model.Campus, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, latitude, longitude FROM campuses ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Campus, 0)
	for rows.Next() {
		var c model.Campus
		if err := rows.Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
