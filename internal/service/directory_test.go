package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMemberNormalizesEmail(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectExec(`INSERT INTO members \(name, email, phone\)`).WithArgs("Ann", "ann@example.com", "555").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(`FROM members WHERE id = \?`).WithArgs(5).WillReturnRows(memberRow(5))

	m, err := NewDirectory(d).CreateMember(context.Background(), PersonInput{Name: " Ann ", Email: "ANN@example.com", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), m.ID)
}

func TestCreateSpecialistDuplicateEmail(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectExec(`INSERT INTO specialists`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewDirectory(d).CreateSpecialist(context.Background(), PersonInput{Name: "Sam", Email: "sam@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreatePersonValidation(t *testing.T) {
	d, _, _ := newTestDeps(t)
	_, err := NewDirectory(d).CreateMember(context.Background(), PersonInput{Name: "Ann", Email: "not-an-email"})
	assert.Equal(t, "invalid_email", Code(err))
	_, err = NewDirectory(d).CreateSpecialist(context.Background(), PersonInput{Email: "a@b.io"})
	assert.Equal(t, "name_required", Code(err))
}

func TestMarkNotificationReadMissing(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectQuery(`SELECT 1 FROM notifications WHERE id = \?`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := NewDirectory(d).MarkNotificationRead(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestSpecialistNotificationsUnreadOnly(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectQuery(`FROM specialists WHERE id = \?`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows(personCols).AddRow(2, "Sam", "sam@example.com", "", testNow))
	mock.ExpectQuery(`FROM notifications WHERE specialist_id = \? AND is_read = 0 ORDER BY created_at DESC`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "specialist_id", "reservation_id", "type", "is_read", "created_at"}).
			AddRow(1, 2, 10, "RESERVATION", false, testNow))

	list, err := NewDirectory(d).SpecialistNotifications(context.Background(), 2, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(10), list[0].ReservationID)
}

func TestCreateCampusValidatesCoordinates(t *testing.T) {
	d, _, _ := newTestDeps(t)
	_, err := NewDirectory(d).CreateCampus(context.Background(), CampusInput{Name: "Main", Latitude: 91})
	assert.Equal(t, "invalid_coordinates", Code(err))
}
