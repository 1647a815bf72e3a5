// Package repository implements MySQL persistence for the placement
// service.  Each repository wraps a *sql.DB; methods ending in Tx run
// inside a caller-owned transaction so that a service can combine
// several writes into one atomic unit.
//
// Missing rows are reported as sql.ErrNoRows.  The sentinels below
// cover the remaining outcomes callers need to tell apart.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotAvailable is returned by the availability compare-and-set when
// the accommodation was already held by another reservation.
var ErrNotAvailable = errors.New("accommodation not available")

// ErrDuplicate is returned when an insert violates a unique key, for
// example a second rating for the same reservation or a reused email.
var ErrDuplicate = errors.New("duplicate")

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func idPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}
