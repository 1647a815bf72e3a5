package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unihaven/placement-api/internal/model"
)

// PriceOrder selects an ORDER BY on monthly_rent.
type PriceOrder int

const (
	PriceUnordered PriceOrder = iota
	PriceAscending
	PriceDescending
)

// AccommodationSearchQuery holds the optional search predicates.  A nil
// pointer or zero value means "no constraint".  Only available
// listings are ever returned.
type AccommodationSearchQuery struct {
	Type          model.AccommodationType
	AvailableFrom model.Date
	AvailableTo   model.Date
	MinBeds       *uint32
	MinBedrooms   *uint32
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Order         PriceOrder
}

// Search returns available listings matching every supplied predicate.
// The availability window must cover the requested range.  Price
// bounds are inclusive.
func (r *AccommodationRepo) Search(ctx context.Context, q AccommodationSearchQuery) ([]model.Accommodation, error) {
	where := []string{"a.is_available = 1"}
	args := []any{}

	if q.Type != "" {
		where = append(where, "a.type = ?")
		args = append(args, q.Type)
	}
	if !q.AvailableFrom.IsZero() {
		where = append(where, "a.available_from <= ?")
		args = append(args, q.AvailableFrom)
	}
	if !q.AvailableTo.IsZero() {
		where = append(where, "a.available_to >= ?")
		args = append(args, q.AvailableTo)
	}
	if q.MinBeds != nil {
		where = append(where, "a.num_beds >= ?")
		args = append(args, *q.MinBeds)
	}
	if q.MinBedrooms != nil {
		where = append(where, "a.num_bedrooms >= ?")
		args = append(args, *q.MinBedrooms)
	}
	if q.MinPrice != nil {
		where = append(where, "a.monthly_rent >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "a.monthly_rent <= ?")
		args = append(args, *q.MaxPrice)
	}

	query := `SELECT ` + accommodationColumns + `
		FROM accommodations a
		WHERE ` + strings.Join(where, " AND ")
	switch q.Order {
	case PriceAscending:
		query += ` ORDER BY a.monthly_rent ASC, a.id ASC`
	case PriceDescending:
		query += ` ORDER BY a.monthly_rent DESC, a.id ASC`
	default:
		query += ` ORDER BY a.id ASC`
	}
	return r.list(ctx, query, args...)
}
