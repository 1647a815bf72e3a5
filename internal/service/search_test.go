package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/placement-api/internal/geo"
	"github.com/unihaven/placement-api/internal/model"
)

var campusCols = []string{"id", "name", "latitude", "longitude"}

func expectCampus(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM campuses WHERE id = \?`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(campusCols).AddRow(1, "Main", 22.28, 114.14))
}

func threeListings() *sqlmock.Rows {
	rows := sqlmock.NewRows(accommodationCols)
	addAccommodation(rows, 1, "1500.00", 22.40, 114.20)
	addAccommodation(rows, 2, "1100.00", 22.285, 114.14)
	addAccommodation(rows, 3, "1300.00", 22.32, 114.16)
	return rows
}

func ids(list []model.Accommodation) []uint64 {
	out := make([]uint64, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestSearchPriceBand(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	minPrice := decimal.RequireFromString("1000")
	maxPrice := decimal.RequireFromString("1200")

	rows := sqlmock.NewRows(accommodationCols)
	addAccommodation(rows, 2, "1100.00", 22.285, 114.14)
	mock.ExpectQuery(`WHERE a.is_available = 1 AND a.monthly_rent >= \? AND a.monthly_rent <= \? ORDER BY a.monthly_rent ASC`).
		WithArgs("1000", "1200").WillReturnRows(rows)

	out, err := NewSearch(d).Run(context.Background(), SearchFilters{
		MinPrice: &minPrice, MaxPrice: &maxPrice, SortBy: "price_asc",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Distance)
}

func TestSearchSortsByDistanceWithCampus(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	expectCampus(mock)
	mock.ExpectQuery(`WHERE a.is_available = 1 ORDER BY a.id ASC`).WillReturnRows(threeListings())

	out, err := NewSearch(d).Run(context.Background(), SearchFilters{CampusID: ptr(uint64(1))})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 1}, ids(out))
	for _, a := range out {
		require.NotNil(t, a.Distance)
		want := geo.Round2(geo.DistanceKm(a.Latitude, a.Longitude, 22.28, 114.14))
		assert.Equal(t, want, *a.Distance)
	}
}

func TestSearchPriceSortWinsOverDistance(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	expectCampus(mock)
	rows := sqlmock.NewRows(accommodationCols)
	addAccommodation(rows, 1, "1500.00", 22.40, 114.20)
	addAccommodation(rows, 3, "1300.00", 22.32, 114.16)
	addAccommodation(rows, 2, "1100.00", 22.285, 114.14)
	mock.ExpectQuery(`ORDER BY a.monthly_rent DESC, a.id ASC`).WillReturnRows(rows)

	out, err := NewSearch(d).Run(context.Background(), SearchFilters{CampusID: ptr(uint64(1)), SortBy: "price_desc"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3, 2}, ids(out))
	for _, a := range out {
		assert.NotNil(t, a.Distance)
	}
}

func TestSearchUnknownCampus(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectQuery(`FROM campuses WHERE id = \?`).WithArgs(9).WillReturnRows(sqlmock.NewRows(campusCols))

	_, err := NewSearch(d).Run(context.Background(), SearchFilters{CampusID: ptr(uint64(9))})
	assert.ErrorIs(t, err, ErrCampusNotFound)
}

func TestSearchContradictoryBoundsMatchNothing(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	low := decimal.RequireFromString("10")
	high := decimal.RequireFromString("20")
	from, to := model.MustDate("2030-02-01"), model.MustDate("2030-01-01")

	mock.ExpectQuery(`WHERE a.is_available = 1 AND .* a.monthly_rent >= \? AND a.monthly_rent <= \?`).
		WithArgs("2030-02-01", "2030-01-01", "20", "10").WillReturnRows(sqlmock.NewRows(accommodationCols))

	out, err := NewSearch(d).Run(context.Background(), SearchFilters{
		AvailableFrom: from, AvailableTo: to, MinPrice: &high, MaxPrice: &low,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearchValidation(t *testing.T) {
	cases := []struct {
		name string
		f    SearchFilters
		code string
	}{
		{"bad type", SearchFilters{Type: "CASTLE"}, "invalid_type"},
		{"bad sort", SearchFilters{SortBy: "rating"}, "invalid_sort"},
		{"distance without campus", SearchFilters{SortBy: "distance"}, "campus_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, _, _ := newTestDeps(t)
			_, err := NewSearch(d).Run(context.Background(), tc.f)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tc.code, Code(err))
		})
	}
}
