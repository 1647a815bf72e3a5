package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/placement-api/internal/model"
)

var accommodationCols = []string{"id", "name", "building_name", "description", "type",
	"num_bedrooms", "num_beds", "address", "geo_address", "latitude", "longitude",
	"available_from", "available_to", "monthly_rent", "owner_id", "is_available",
	"created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func addAccommodationRow(rows *sqlmock.Rows, id int64, rent string, available bool) *sqlmock.Rows {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "Flat", "Tower", "", "APARTMENT", 2, 3, "1 Road", "GEO", 22.28, 114.14,
		now, now.AddDate(0, 1, 0), rent, 7, available, now, now)
}

func TestAccommodationSearchBuildsPredicates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccommodationRepo(db)

	minBeds := uint32(2)
	minPrice := decimal.RequireFromString("1000")
	maxPrice := decimal.RequireFromString("1600")
	rows := addAccommodationRow(sqlmock.NewRows(accommodationCols), 1, "1200.00", true)
	mock.ExpectQuery(`WHERE a.is_available = 1 AND a.type = \? AND a.available_from <= \? AND a.available_to >= \? AND a.num_beds >= \? AND a.monthly_rent >= \? AND a.monthly_rent <= \? ORDER BY a.monthly_rent ASC`).
		WithArgs("STUDIO", "2030-01-05", "2030-01-20", minBeds, "1000", "1600").
		WillReturnRows(rows)

	out, err := repo.Search(context.Background(), AccommodationSearchQuery{
		Type:          model.TypeStudio,
		AvailableFrom: model.MustDate("2030-01-05"),
		AvailableTo:   model.MustDate("2030-01-20"),
		MinBeds:       &minBeds,
		MinPrice:      &minPrice,
		MaxPrice:      &maxPrice,
		Order:         PriceAscending,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].MonthlyRent.Equal(decimal.RequireFromString("1200")))
	assert.Equal(t, "2030-01-01", out[0].AvailableFrom.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccommodationSearchDefaults(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE a.is_available = 1 ORDER BY a.id ASC`).
		WillReturnRows(sqlmock.NewRows(accommodationCols))

	out, err := NewAccommodationRepo(db).Search(context.Background(), AccommodationSearchQuery{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkUnavailableIsCompareAndSet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccommodationRepo(db)
	const cas = `UPDATE accommodations SET is_available = 0 WHERE id = ? AND is_available = 1`

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(cas)).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(cas)).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	assert.NoError(t, repo.MarkUnavailableTx(context.Background(), tx, 5))
	assert.ErrorIs(t, repo.MarkUnavailableTx(context.Background(), tx, 5), ErrNotAvailable)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdateLocksRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM accommodations a WHERE a.id = \? FOR UPDATE`).WithArgs(9).
		WillReturnRows(addAccommodationRow(sqlmock.NewRows(accommodationCols), 9, "900.50", false))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	a, err := NewAccommodationRepo(db).GetForUpdateTx(context.Background(), tx, 9)
	require.NoError(t, err)
	assert.False(t, a.IsAvailable)
	assert.Equal(t, "900.5", a.MonthlyRent.String())
	require.NoError(t, tx.Commit())
}

func TestDeleteMissingAccommodation(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM accommodations WHERE id = \?`).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)
	assert.ErrorIs(t, NewAccommodationRepo(db).DeleteTx(context.Background(), tx, 3), sql.ErrNoRows)
}

func TestNotificationBulkInsert(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications (specialist_id, reservation_id, type, is_read) VALUES (?, ?, ?, 0),(?, ?, ?, 0)`)).
		WithArgs(1, 40, "RESERVATION", 2, 40, "RESERVATION").
		WillReturnResult(sqlmock.NewResult(0, 2))

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewNotificationRepo(db)
	require.NoError(t, repo.CreateBulkTx(context.Background(), tx, []uint64{1, 2}, 40, model.NotificationReservation))
	// no recipients, no statement
	require.NoError(t, repo.CreateBulkTx(context.Background(), tx, nil, 40, model.NotificationReservation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActiveReservations(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM reservations WHERE accommodation_id = ? AND status IN (?,?)`)).
		WithArgs(4, "PENDING", "CONFIRMED").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	tx, err := db.Begin()
	require.NoError(t, err)
	n, err := NewReservationRepo(db).CountActiveTx(context.Background(), tx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestActionLogListFiltersAndPages(t *testing.T) {
	db, mock := newMock(t)
	uid := uint64(12)
	start := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM action_logs WHERE action_type = ? AND user_type = ? AND user_id = ? AND created_at >= ?`)).
		WithArgs("CANCEL_RESERVATION", "MEMBER", uid, start).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(21))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC\s+LIMIT \? OFFSET \?`).
		WithArgs("CANCEL_RESERVATION", "MEMBER", uid, start, 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action_type", "user_type", "user_id", "accommodation_id", "reservation_id", "rating_id", "details", "created_at"}).
			AddRow(1, "CANCEL_RESERVATION", "MEMBER", 12, 3, 8, nil, "cancelled", start))

	out, total, err := NewActionLogRepo(db).List(context.Background(), ActionLogQuery{
		ActionType: model.ActionCancelReservation,
		UserType:   model.ActorMember,
		UserID:     &uid,
		Start:      start,
		Page:       2,
		PageSize:   20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 21, total)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].RatingID)
	require.NotNil(t, out[0].ReservationID)
	assert.EqualValues(t, 8, *out[0].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingPendingOrder(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM ratings WHERE moderated_by IS NULL ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "accommodation_id", "member_id", "reservation_id", "score", "comment",
			"is_approved", "moderated_by", "moderation_date", "moderation_note", "created_at"}).
			AddRow(1, 2, 3, 4, 5, "great", true, nil, nil, "", now))

	out, err := NewRatingRepo(db).ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].ModeratedBy)
	assert.Nil(t, out[0].ModerationDate)
}
