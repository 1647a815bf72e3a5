package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratingRow(id int64, approved bool, moderatedBy any) *sqlmock.Rows {
	return sqlmock.NewRows(ratingCols).AddRow(id, 1, 5, 10, 4, "great", approved, moderatedBy, nil, "", testNow)
}

func TestSubmitRating(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	expectLockReservation(mock, 10, "COMPLETED")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ratings WHERE reservation_id = \?`).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO ratings`).WithArgs(1, 5, 10, 4, "great").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(`FROM ratings WHERE id = \?`).WithArgs(3).WillReturnRows(ratingRow(3, true, nil))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("CREATE_RATING", "MEMBER", 5, 1, 10, 3, "score 4").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rt, err := NewRatingGate(d).Submit(context.Background(), 10, 4, " great ")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rt.ID)
	assert.True(t, rt.IsApproved)
	assert.Nil(t, rt.ModeratedBy)
}

func TestSubmitRatingRejections(t *testing.T) {
	cases := []struct {
		name   string
		status string
		rated  int
		score  int
		want   error
	}{
		{"pending reservation", "PENDING", 0, 4, ErrNotCompleted},
		{"cancelled reservation", "CANCELLED", 0, 4, ErrNotCompleted},
		{"already rated", "COMPLETED", 1, 4, ErrAlreadyRated},
		{"score too high", "COMPLETED", 0, 6, ErrInvalidScore},
		{"negative score", "COMPLETED", 0, -1, ErrInvalidScore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, mock, _ := newTestDeps(t)
			mock.ExpectBegin()
			expectLockReservation(mock, 10, tc.status)
			if tc.status == "COMPLETED" {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ratings`).WithArgs(10).
					WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(tc.rated))
			}
			mock.ExpectRollback()

			_, err := NewRatingGate(d).Submit(context.Background(), 10, tc.score, "")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitRatingBoundaryScores(t *testing.T) {
	for _, score := range []int{0, 5} {
		d, mock, _ := newTestDeps(t)
		mock.ExpectBegin()
		expectLockReservation(mock, 10, "COMPLETED")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ratings`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO ratings`).WithArgs(1, 5, 10, score, "").WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectQuery(`FROM ratings WHERE id = \?`).WillReturnRows(ratingRow(3, true, nil))
		mock.ExpectExec(`INSERT INTO action_logs`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		_, err := NewRatingGate(d).Submit(context.Background(), 10, score, "")
		require.NoError(t, err, "score %d", score)
	}
}

func TestModerateOverwritesDecision(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM ratings WHERE id = \? FOR UPDATE`).WithArgs(3).WillReturnRows(ratingRow(3, true, 8))
	mock.ExpectQuery(`FROM specialists WHERE id = \?`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows(personCols).AddRow(2, "Sam", "sam@example.com", "", testNow))
	mock.ExpectExec(`UPDATE ratings\s+SET is_approved = \?, moderated_by = \?, moderation_date = \?, moderation_note = \?`).
		WithArgs(false, 2, testNow, "spam", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO action_logs`).
		WithArgs("MODERATE_RATING", "SPECIALIST", 2, 1, 10, 3, "rejected: spam").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rt, err := NewRatingGate(d).Moderate(context.Background(), ModerateInput{
		RatingID: 3, SpecialistID: 2, IsApproved: false, Note: "spam",
	})
	require.NoError(t, err)
	assert.False(t, rt.IsApproved)
	require.NotNil(t, rt.ModeratedBy)
	assert.Equal(t, uint64(2), *rt.ModeratedBy)
	require.NotNil(t, rt.ModerationDate)
	assert.True(t, rt.ModerationDate.Equal(testNow))
	assert.Equal(t, "spam", rt.ModerationNote)
}

func TestModerateNotFound(t *testing.T) {
	t.Run("rating", func(t *testing.T) {
		d, mock, _ := newTestDeps(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM ratings WHERE id = \? FOR UPDATE`).WithArgs(3).WillReturnRows(noRows(ratingCols))
		mock.ExpectRollback()

		_, err := NewRatingGate(d).Moderate(context.Background(), ModerateInput{RatingID: 3, SpecialistID: 2})
		assert.ErrorIs(t, err, ErrRatingNotFound)
	})
	t.Run("specialist", func(t *testing.T) {
		d, mock, _ := newTestDeps(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM ratings WHERE id = \? FOR UPDATE`).WithArgs(3).WillReturnRows(ratingRow(3, true, nil))
		mock.ExpectQuery(`FROM specialists WHERE id = \?`).WithArgs(2).WillReturnRows(noRows(personCols))
		mock.ExpectRollback()

		_, err := NewRatingGate(d).Moderate(context.Background(), ModerateInput{RatingID: 3, SpecialistID: 2})
		assert.ErrorIs(t, err, ErrSpecialistNotFound)
	})
}
