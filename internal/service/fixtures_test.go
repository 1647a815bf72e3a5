package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/placement-api/internal/geo"
	"github.com/unihaven/placement-api/internal/queue"
)

// testNow is a fixed clock: "today" is 2030-01-01 in UTC.
var testNow = time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

var (
	accommodationCols = []string{"id", "name", "building_name", "description", "type",
		"num_bedrooms", "num_beds", "address", "geo_address", "latitude", "longitude",
		"available_from", "available_to", "monthly_rent", "owner_id", "is_available",
		"created_at", "updated_at"}
	reservationCols = []string{"id", "accommodation_id", "member_id", "reserved_from", "reserved_to",
		"contact_name", "contact_phone", "status", "created_at", "updated_at"}
	ratingCols = []string{"id", "accommodation_id", "member_id", "reservation_id", "score", "comment",
		"is_approved", "moderated_by", "moderation_date", "moderation_note", "created_at"}
	personCols = []string{"id", "name", "email", "phone", "created_at"}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type stubLookup struct {
	loc geo.Location
	err error
}

func (s stubLookup) Lookup(context.Context, string) (geo.Location, error) { return s.loc, s.err }

func newTestDeps(t *testing.T) (Deps, sqlmock.Sqlmock, *recordingPublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	pub := &recordingPublisher{}
	d := NewDeps(db)
	d.Events = pub
	d.Now = func() time.Time { return testNow }
	return d, mock, pub
}

// day returns the calendar day n days after testNow as YYYY-MM-DD.
func day(n int) string { return testNow.AddDate(0, 0, n).Format("2006-01-02") }

// accommodationRow has an availability window of [day+5, day+30].
func accommodationRow(id int64, rent string, lat, lon float64, available bool) *sqlmock.Rows {
	return sqlmock.NewRows(accommodationCols).AddRow(id, "Flat", "Tower", "", "APARTMENT", 2, 3, "1 Road", "GEO",
		lat, lon, day(5), day(30), rent, 7, available, testNow, testNow)
}

func addAccommodation(rows *sqlmock.Rows, id int64, rent string, lat, lon float64) *sqlmock.Rows {
	return rows.AddRow(id, "Flat", "Tower", "", "APARTMENT", 2, 3, "1 Road", "GEO",
		lat, lon, day(5), day(30), rent, 7, true, testNow, testNow)
}

func reservationRow(id, accommodationID, memberID int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).AddRow(id, accommodationID, memberID, day(6), day(10),
		"Ann", "555", status, testNow, testNow)
}

func memberRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows(personCols).AddRow(id, "Ann", "ann@example.com", "555", testNow)
}

func noRows(cols []string) *sqlmock.Rows { return sqlmock.NewRows(cols) }

func expectLockAccommodation(mock sqlmock.Sqlmock, id int64, rows *sqlmock.Rows) {
	mock.ExpectQuery(`FROM accommodations a WHERE a.id = \? FOR UPDATE`).WithArgs(id).WillReturnRows(rows)
}

func expectSpecialists(mock sqlmock.Sqlmock, ids ...int64) {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	mock.ExpectQuery(`SELECT id FROM specialists ORDER BY id`).WillReturnRows(rows)
}

var errBoom = errors.New("boom")
