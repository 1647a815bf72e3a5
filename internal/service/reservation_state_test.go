package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/queue"
)

var memberActor = model.Actor{Type: model.ActorMember, ID: ptr(uint64(5))}

func expectLockReservation(mock sqlmock.Sqlmock, id int64, status string) {
	mock.ExpectQuery(`FROM reservations r WHERE r.id = \? FOR UPDATE`).WithArgs(id).
		WillReturnRows(reservationRow(id, 1, 5, status))
}

func TestCancelPendingReleasesAndNotifies(t *testing.T) {
	d, mock, pub := newTestDeps(t)

	mock.ExpectBegin()
	expectLockReservation(mock, 10, "PENDING")
	mock.ExpectExec(`UPDATE reservations SET status = \? WHERE id = \?`).WithArgs("CANCELLED", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE accommodations SET is_available = 1 WHERE id = \?`).WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectSpecialists(mock, 2)
	mock.ExpectExec(`INSERT INTO notifications`).WithArgs(2, 10, "CANCELLATION").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("CANCEL_RESERVATION", "MEMBER", 5, 1, 10, nil, "PENDING -> CANCELLED").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewReservationStates(d, nil).Cancel(context.Background(), 10, memberActor)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventReservationCancelled, pub.events[0].Type)
	assert.Equal(t, "PENDING", pub.events[0].PreviousStatus)
	assert.Equal(t, "CANCELLED", pub.events[0].Status)
}

func TestCancelConfirmedIsRejected(t *testing.T) {
	d, mock, pub := newTestDeps(t)
	mock.ExpectBegin()
	expectLockReservation(mock, 10, "CONFIRMED")
	mock.ExpectRollback()

	_, err := NewReservationStates(d, nil).Cancel(context.Background(), 10, memberActor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "CONFIRMED to CANCELLED")
	assert.Empty(t, pub.events)
}

func TestSetStatusConfirmKeepsAccommodationHeld(t *testing.T) {
	d, mock, pub := newTestDeps(t)
	staff := model.Actor{Type: model.ActorSpecialist, ID: ptr(uint64(2))}

	mock.ExpectBegin()
	expectLockReservation(mock, 10, "PENDING")
	mock.ExpectExec(`UPDATE reservations SET status = \?`).WithArgs("CONFIRMED", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("UPDATE_RESERVATION_STATUS", "SPECIALIST", 2, 1, 10, nil, "PENDING -> CONFIRMED").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "confirmed", staff)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventReservationStatusChanged, pub.events[0].Type)
}

func TestSetStatusCompleteReleasesAccommodation(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	expectLockReservation(mock, 10, "CONFIRMED")
	mock.ExpectExec(`UPDATE reservations SET status = \?`).WithArgs("COMPLETED", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE accommodations SET is_available = 1 WHERE id = \?`).WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("UPDATE_RESERVATION_STATUS", "SYSTEM", nil, 1, 10, nil, "CONFIRMED -> COMPLETED").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "COMPLETED", model.Actor{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
}

func TestSetStatusCompleteFromPending(t *testing.T) {
	d, mock, pub := newTestDeps(t)
	staff := model.Actor{Type: model.ActorSpecialist, ID: ptr(uint64(2))}

	mock.ExpectBegin()
	expectLockReservation(mock, 10, "PENDING")
	mock.ExpectExec(`UPDATE reservations SET status = \?`).WithArgs("COMPLETED", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE accommodations SET is_available = 1 WHERE id = \?`).WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("UPDATE_RESERVATION_STATUS", "SPECIALIST", 2, 1, 10, nil, "PENDING -> COMPLETED").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "COMPLETED", staff)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "PENDING", pub.events[0].PreviousStatus)
}

func TestSetStatusBackToPendingKeepsHold(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	expectLockReservation(mock, 10, "CONFIRMED")
	mock.ExpectExec(`UPDATE reservations SET status = \?`).WithArgs("PENDING", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("UPDATE_RESERVATION_STATUS", "MEMBER", 5, 1, 10, nil, "CONFIRMED -> PENDING").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "pending", memberActor)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, res.Status)
}

func TestSetStatusCannotReopen(t *testing.T) {
	for _, from := range []string{"CANCELLED", "COMPLETED"} {
		t.Run(from, func(t *testing.T) {
			d, mock, pub := newTestDeps(t)
			mock.ExpectBegin()
			expectLockReservation(mock, 10, from)
			mock.ExpectRollback()

			_, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "PENDING", memberActor)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Empty(t, pub.events)
		})
	}
}

func TestSetStatusCancelConfirmedIsRejected(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectBegin()
	expectLockReservation(mock, 10, "CONFIRMED")
	mock.ExpectRollback()

	_, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "CANCELLED", memberActor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetStatusCancelledUsesCancelGuard(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectBegin()
	expectLockReservation(mock, 10, "COMPLETED")
	mock.ExpectRollback()

	_, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "CANCELLED", memberActor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetStatusInvalidValue(t *testing.T) {
	d, _, _ := newTestDeps(t)
	_, err := NewReservationStates(d, nil).SetStatus(context.Background(), 10, "ARCHIVED", memberActor)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransitionMissingReservation(t *testing.T) {
	d, mock, _ := newTestDeps(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations r WHERE r.id = \? FOR UPDATE`).WithArgs(99).
		WillReturnRows(noRows(reservationCols))
	mock.ExpectRollback()

	_, err := NewReservationStates(d, nil).Cancel(context.Background(), 99, memberActor)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
