package repository

import (
	"context"
	"database/sql"

	"github.com/unihaven/placement-api/internal/database"
	"github.com/unihaven/placement-api/internal/model"
)

// MemberRepo persists university members.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// Create inserts a member.  A reused email yields ErrDuplicate.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	id, err := insertPerson(ctx, r.db, "members", m.Name, m.Email, m.Phone)
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// GetByID returns a member or sql.ErrNoRows.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	return r.get(ctx, r.db, id)
}

// GetTx reads a member inside a transaction.
func (r *MemberRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Member, error) {
	return r.get(ctx, tx, id)
}

func (r *MemberRepo) get(ctx context.Context, q queryer, id uint64) (*model.Member, error) {
	var m model.Member
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at FROM members WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SpecialistRepo persists staff specialists.
type SpecialistRepo struct {
	db *sql.DB
}

// NewSpecialistRepo returns a new SpecialistRepo bound to the given database.
func NewSpecialistRepo(db *sql.DB) *SpecialistRepo { return &SpecialistRepo{db: db} }

// Create inserts a specialist.  A reused email yields ErrDuplicate.
func (r *SpecialistRepo) Create(ctx context.Context, s *model.Specialist) error {
	id, err := insertPerson(ctx, r.db, "specialists", s.Name, s.Email, s.Phone)
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*s = *stored
	return nil
}

// GetByID returns a specialist or sql.ErrNoRows.
func (r *SpecialistRepo) GetByID(ctx context.Context, id uint64) (*model.Specialist, error) {
	return r.get(ctx, r.db, id)
}

// GetTx reads a specialist inside a transaction.
func (r *SpecialistRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Specialist, error) {
	return r.get(ctx, tx, id)
}

func (r *SpecialistRepo) get(ctx context.Context, q queryer, id uint64) (*model.Specialist, error) {
	var s model.Specialist
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at FROM specialists WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns every specialist ordered by id.
func (r *SpecialistRepo) List(ctx context.Context) ([]model.Specialist, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, phone, created_at FROM specialists ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Specialist, 0)
	for rows.Next() {
		var s model.Specialist
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListIDsTx returns the ids of every specialist.  It runs inside the
// caller's transaction so the recipient set is consistent with the
// write it accompanies.
func (r *SpecialistRepo) ListIDsTx(ctx context.Context, tx *sql.Tx) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM specialists ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OwnerRepo persists listing owners.
type OwnerRepo struct {
	db *sql.DB
}

// NewOwnerRepo returns a new OwnerRepo bound to the given database.
func NewOwnerRepo(db *sql.DB) *OwnerRepo { return &OwnerRepo{db: db} }

// GetByID returns an owner or sql.ErrNoRows.
func (r *OwnerRepo) GetByID(ctx context.Context, id uint64) (*model.Owner, error) {
	return r.get(ctx, r.db, `id = ?`, id)
}

// GetTx reads an owner inside a transaction.
func (r *OwnerRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Owner, error) {
	return r.get(ctx, tx, `id = ?`, id)
}

// GetByEmailTx looks an owner up by email inside a transaction.
func (r *OwnerRepo) GetByEmailTx(ctx context.Context, tx *sql.Tx, email string) (*model.Owner, error) {
	return r.get(ctx, tx, `email = ?`, email)
}

func (r *OwnerRepo) get(ctx context.Context, q queryer, cond string, arg any) (*model.Owner, error) {
	var o model.Owner
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, COALESCE(address, ''), created_at FROM owners WHERE `+cond, arg,
	).Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateTx inserts an owner and sets its generated id.
func (r *OwnerRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Owner) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO owners (name, email, phone, address) VALUES (?, ?, ?, ?)`,
		o.Name, o.Email, o.Phone, o.Address,
	)
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
	o.ID = uint64(id)
	return nil
}

func insertPerson(ctx context.Context, db *sql.DB, table, name, email, phone string) (uint64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO `+table+` (name, email, phone) VALUES (?, ?, ?)`, name, email, phone)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
