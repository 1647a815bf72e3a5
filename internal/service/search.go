package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unihaven/placement-api/internal/geo"
	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/repository"
)

// Sort keys accepted by Search.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortDistance  = "distance"
)

// SearchFilters are the independently optional search predicates.
type SearchFilters struct {
	Type          model.AccommodationType
	AvailableFrom model.Date
	AvailableTo   model.Date
	MinBeds       *uint32
	MinBedrooms   *uint32
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	CampusID      *uint64
	SortBy        string
}

// Search finds available listings.
type Search struct {
	d Deps
}

func NewSearch(d Deps) *Search { return &Search{d: d} }

// Run applies the filters in SQL and then the sort.  Filters are
// independent, so contradictory bounds simply match nothing.  An explicit price
// sort wins; otherwise a campus sorts by ascending distance.  Whenever a
// campus is given every result carries its distance rounded to two
// decimals.
func (s *Search) Run(ctx context.Context, f SearchFilters) ([]model.Accommodation, error) {
	q := repository.AccommodationSearchQuery{
		Type:          f.Type,
		AvailableFrom: f.AvailableFrom,
		AvailableTo:   f.AvailableTo,
		MinBeds:       f.MinBeds,
		MinBedrooms:   f.MinBedrooms,
		MinPrice:      f.MinPrice,
		MaxPrice:      f.MaxPrice,
	}
	if f.Type != "" && !f.Type.IsValid() {
		return nil, Validation("invalid_type", "type must be one of APARTMENT, HOUSE, SHARED, STUDIO")
	}

	byDistance := false
	switch strings.ToLower(strings.TrimSpace(f.SortBy)) {
	case "":
		byDistance = f.CampusID != nil
	case SortPriceAsc:
		q.Order = repository.PriceAscending
	case SortPriceDesc:
		q.Order = repository.PriceDescending
	case SortDistance:
		if f.CampusID == nil {
			return nil, Validation("campus_required", "sort_by=distance requires campus_id")
		}
		byDistance = true
	default:
		return nil, Validation("invalid_sort", "sort_by must be price_asc, price_desc or distance")
	}

	var campus *model.Campus
	if f.CampusID != nil {
		c, err := s.d.Campuses.GetByID(ctx, *f.CampusID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampusNotFound
		}
		if err != nil {
			return nil, err
		}
		campus = c
	}

	results, err := s.d.Accommodations.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if campus == nil {
		return results, nil
	}

	raw := make([]float64, len(results))
	for i := range results {
		raw[i] = geo.DistanceKm(results[i].Latitude, results[i].Longitude, campus.Latitude, campus.Longitude)
		results[i].Distance = ptr(geo.Round2(raw[i]))
	}
	if byDistance {
		sort.Stable(byRawDistance{items: results, dist: raw})
	}
	return results, nil
}

// byRawDistance sorts listings by their unrounded distance.
type byRawDistance struct {
	items []model.Accommodation
	dist  []float64
}

func (b byRawDistance) Len() int           { return len(b.items) }
func (b byRawDistance) Less(i, j int) bool { return b.dist[i] < b.dist[j] }
func (b byRawDistance) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.dist[i], b.dist[j] = b.dist[j], b.dist[i]
}
